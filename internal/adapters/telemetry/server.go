package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 5 * time.Second

// MetricsServer exposes a metrics handler on /metrics.
type MetricsServer struct {
	address string
	handler http.Handler
	logger  ports.Logger
	ready   chan struct{}
	addr    net.Addr
}

// NewMetricsServer creates a server for address. The handler is mounted on /metrics.
func NewMetricsServer(address string, handler http.Handler, logger ports.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &MetricsServer{
		address: address,
		handler: mux,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the listener is bound.
func (s *MetricsServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. It is valid after Ready is closed.
func (s *MetricsServer) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx ends, then shuts down gracefully.
func (s *MetricsServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen for metrics"), "address", s.address)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("metrics listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveDone:
		if err != nil {
			return zerr.Wrap(err, "metrics server stopped")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "metrics server shutdown")
	}
	return nil
}
