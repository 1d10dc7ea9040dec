// Package server wraps an HTTP server with graceful shutdown,
// adapted directly from dd0wney-graphdb's pkg/server/graceful.go:
// same signal set (SIGINT/SIGTERM/SIGHUP/SIGUSR1) and shutdown-once
// semantics, swapped from the standard log package to gridview's
// structured logging.Logger.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gridview/internal/logging"
)

// ReloadFunc reloads gridview's configuration in place (e.g. to pick
// up a new index granularity without a restart).
type ReloadFunc func() error

// GracefulServer wraps an HTTP server (in cmd/gridviewd: the WebSocket
// upgrade endpoint plus /healthz; /metrics has its own listener) with
// graceful shutdown.
type GracefulServer struct {
	httpServer   *http.Server
	log          logging.Logger
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	reloadMu sync.RWMutex
	reloadFn ReloadFunc
}

// New builds a GracefulServer listening on addr with handler.
func New(addr string, handler http.Handler, log logging.Logger) *GracefulServer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &GracefulServer{
		httpServer: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		log:        log,
		shutdownCh: make(chan struct{}),
	}
}

// Start listens and serves until Shutdown is called or a fatal signal
// is handled, returning nil for the expected "server closed" case.
func (s *GracefulServer) Start() error {
	go s.handleSignals()

	s.log.Info("starting http server", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown initiates (at most once) a graceful shutdown, waiting up
// to timeout for in-flight requests to finish.
func (s *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
			s.log.Error("error during shutdown", logging.Error(shutdownErr))
		} else {
			s.log.Info("server shutdown complete")
		}
	})
	return err
}

func (s *GracefulServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGUSR1,
	)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			s.log.Info("received shutdown signal", logging.String("signal", sig.String()))
			if err := s.Shutdown(30 * time.Second); err != nil {
				s.log.Error("shutdown error", logging.Error(err))
				os.Exit(1)
			}
			os.Exit(0)

		case syscall.SIGHUP:
			s.log.Info("received SIGHUP, reloading configuration")
			if err := s.Reload(); err != nil {
				s.log.Error("configuration reload error", logging.Error(err))
			}

		case syscall.SIGUSR1:
			// Log-only hook: no rebuild is started here, and
			// connections and config are left untouched.
			s.log.Info("received SIGUSR1, index rebuild should be triggered by the caller")
		}
	}
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *GracefulServer) IsShuttingDown() bool {
	select {
	case <-s.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown begins.
func (s *GracefulServer) ShutdownChannel() <-chan struct{} {
	return s.shutdownCh
}

// SetReloadFunc sets the function invoked on SIGHUP.
func (s *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.reloadFn = fn
}

// Reload invokes the configured reload function, if any.
func (s *GracefulServer) Reload() error {
	s.reloadMu.RLock()
	fn := s.reloadFn
	s.reloadMu.RUnlock()

	if fn == nil {
		s.log.Info("reload requested, but no reload function configured")
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	s.log.Info("configuration reload complete")
	return nil
}
