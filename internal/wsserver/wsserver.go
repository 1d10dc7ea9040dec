// Package wsserver upgrades HTTP connections to WebSocket and feeds
// each text frame to the dispatcher, one connection per goroutine.
//
// Grounded on original_source/backend/src/main.rs's handle_socket
// loop (read one text frame, decode, dispatch, write one response,
// break on Close/error) — translated from axum's WebSocketUpgrade to
// gorilla/websocket's Upgrader, the library every other WS-serving
// repo in the example corpus reaches for.
package wsserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gridview/internal/dispatcher"
	"gridview/internal/logging"
	"gridview/internal/metrics"
)

// MaxMessageSize bounds a single inbound frame, mirroring the
// original's 16 MiB ws.max_message_size/max_frame_size.
const MaxMessageSize = 16 * 1024 * 1024

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Viewport clients are same-origin browser pages; a production
	// deployment behind a different origin should tighten this.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades requests at its registered route and serves each
// connection's messages through a Dispatcher.
type Handler struct {
	dispatcher *dispatcher.Dispatcher
	log        logging.Logger
	metrics    *metrics.Registry
}

// New builds a Handler that dispatches every connection's messages to
// d.
func New(d *dispatcher.Dispatcher, log logging.Logger, reg *metrics.Registry) *Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Handler{dispatcher: d, log: log, metrics: reg}
}

// ServeHTTP implements http.Handler, upgrading the connection and
// blocking for its lifetime.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(MaxMessageSize)

	if h.metrics != nil {
		h.metrics.WSConnectionsActive.Inc()
		defer h.metrics.WSConnectionsActive.Dec()
	}

	h.serve(r.Context(), conn)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// Normal close, or a transport error — either way the
			// connection is abandoned in-flight requests with it.
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.dispatcher.Handle(ctx, data)

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			return
		}
	}
}
