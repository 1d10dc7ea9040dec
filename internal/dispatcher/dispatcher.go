package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gridview/internal/apperr"
	"gridview/internal/logging"
	"gridview/internal/metrics"
	"gridview/internal/slicer"
	"gridview/internal/viewport"
)

// Dispatcher answers transport messages against one active data file.
// A disconnecting client or one bad message never crashes the
// process: malformed input and slicer failures both become an
// ErrorResponse, per spec.md §7's decoding-error taxonomy.
//
// Dispatcher holds src rather than a snapshotted *rowindex.Index, so a
// rebuild that swaps the catalog entry's index is visible on the very
// next request without re-wiring the Dispatcher.
type Dispatcher struct {
	slicer         slicer.Slicer
	src            slicer.Source
	maxRowsCeiling int64 // 0 means unbounded
	viewport       viewport.Request // template: buffers/sizes, filled in per request
	numCols        int
	log            logging.Logger
	metrics        *metrics.Registry
}

// N_COLS is the seed dataset's column count per spec.md's worked
// examples (two semicolon-delimited fields per record). A real
// deployment with a different schema width would plumb this through
// config instead of hardcoding it; gridview's data files are always
// two-column per SPEC_FULL.md's scope.
const N_COLS = 2

// New builds a Dispatcher bound to one file's slicer and the same
// source (typically a *catalog.Entry) the slicer itself reads through,
// using the given viewport defaults for fields a client omits.
// maxRowsCeiling clamps the row count reported and served regardless
// of the index's actual TotalRows; 0 disables the ceiling.
func New(s slicer.Slicer, src slicer.Source, maxRowsCeiling int64, defaults viewport.Request, log logging.Logger, reg *metrics.Registry) *Dispatcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Dispatcher{
		slicer:         s,
		src:            src,
		maxRowsCeiling: maxRowsCeiling,
		viewport:       defaults,
		numCols:        N_COLS,
		log:            log,
		metrics:        reg,
	}
}

// effectiveMaxRows returns the live row count from the source, clamped
// to maxRowsCeiling when one is configured.
func (d *Dispatcher) effectiveMaxRows() int64 {
	total := int64(d.src.Index().TotalRows)
	if d.maxRowsCeiling > 0 && total > d.maxRowsCeiling {
		return d.maxRowsCeiling
	}
	return total
}

// Handle decodes one request message, routes it, and returns the
// encoded response message. It never returns an error itself —
// anything that goes wrong is folded into an ErrorResponse, since the
// transport's job is only to move the bytes.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) []byte {
	requestID := uuid.NewString()
	log := d.log.With(logging.RequestID(requestID))

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn("malformed request", logging.Error(err))
		d.recordError("malformed_json")
		return d.encode(newError("malformed request: " + err.Error()))
	}

	switch env.Kind {
	case KindMetadataRequest:
		return d.encode(d.handleMetadata())

	case KindSliceRequest:
		var req SliceRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Warn("malformed slice_request", logging.Error(err))
			d.recordError("malformed_slice_request")
			return d.encode(newError("malformed slice_request: " + err.Error()))
		}
		return d.encode(d.handleSlice(ctx, req, log))

	default:
		log.Warn("unknown request kind", logging.String("kind", string(env.Kind)))
		d.recordError("unknown_kind")
		return d.encode(newError("unknown request kind: " + string(env.Kind)))
	}
}

func (d *Dispatcher) handleMetadata() *MetadataResponse {
	return &MetadataResponse{
		Kind:    KindMetadataResponse,
		MaxRows: int(d.effectiveMaxRows()),
		MaxCols: d.numCols,
	}
}

func (d *Dispatcher) handleSlice(ctx context.Context, req SliceRequest, log logging.Logger) any {
	start := time.Now()

	vreq := d.viewport
	vreq.ScreenWidth = req.ScreenWidth
	vreq.ScreenHeight = req.ScreenHeight
	if req.HorizontalBuffer > 0 {
		vreq.HorizontalBuffer = req.HorizontalBuffer
	}
	if req.VerticalBuffer > 0 {
		vreq.VerticalBuffer = req.VerticalBuffer
	}
	if req.DefaultColumnWidth > 0 {
		vreq.DefaultColumnWidth = req.DefaultColumnWidth
	}
	if req.DefaultRowHeight > 0 {
		vreq.DefaultRowHeight = req.DefaultRowHeight
	}
	vreq.ScrollLeft = req.ScrollLeft
	vreq.ScrollTop = req.ScrollTop
	vreq.MaxRows = d.effectiveMaxRows()
	vreq.MaxCols = d.numCols

	params := viewport.Compute(vreq)

	resp, err := d.slicer.GetSlice(ctx, params)
	if err != nil {
		log.Error("slice request failed", logging.Error(err))
		d.recordError("slice_failed")
		if d.metrics != nil {
			d.metrics.RecordSlice("error", time.Since(start), 0)
		}
		return newError(publicMessage(err))
	}

	if d.metrics != nil {
		d.metrics.RecordSlice("ok", time.Since(start), resp.RowCount)
	}

	return &SliceResponse{
		Kind:       KindSliceResponse,
		StartRow:   resp.StartRow,
		RowCount:   resp.RowCount,
		StartCol:   resp.StartCol,
		ColCount:   resp.ColCount,
		ColLetters: resp.ColLetters,
		CellsByRow: resp.CellsByRow,
	}
}

func (d *Dispatcher) recordError(reason string) {
	if d.metrics != nil {
		d.metrics.RecordDispatchError(reason)
	}
}

func (d *Dispatcher) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshaling our own response types cannot fail in practice;
		// fall back to a minimal hand-built error rather than panic.
		return []byte(`{"kind":"error","message":"internal encoding failure"}`)
	}
	return data
}

// publicMessage strips internal detail (file paths, wrapped causes)
// from an error before it reaches a client.
func publicMessage(err error) string {
	if apperr.IsNotFound(err) {
		return "data file not available"
	}
	return "slice request failed"
}
