package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	// WriteTimeout bounds a full response, including the time spent streaming
	// multipart uploads through to the object store.
	WriteTimeout = 5 * time.Minute

	// ShutdownTimeout is how long in-flight requests get to drain.
	ShutdownTimeout = 10 * time.Second
)

// Server wraps http.Server with upload-friendly timeouts.
type Server struct {
	inner  *http.Server
	logger *slog.Logger
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      WriteTimeout,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
	}
}

// Addr reports the address the server listens on.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Run serves on ln until ctx is done, then drains in-flight requests for at
// most ShutdownTimeout. A nil ln listens on Addr.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.inner.Addr); err != nil {
			return fmt.Errorf("listen %s: %w", s.inner.Addr, err)
		}
	}
	s.inner.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.inner.Serve(ln)
	}()
	s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", slog.String("reason", context.Cause(ctx).Error()))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := s.inner.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
