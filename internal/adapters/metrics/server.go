package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockMonitor/internal/ports"
)

// Server runs the monitor HTTP listener: /metrics, /healthz and an optional
// /ws feed.
type Server struct {
	addr   string
	srv    *http.Server
	logger ports.Logger
}

// NewServer creates the HTTP server. ws may be nil.
func NewServer(addr string, m *Prometheus, health *HealthStatus, ws http.Handler, logger ports.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	if ws != nil {
		mux.Handle("/ws", ws)
	}

	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "HTTP listener started", map[string]interface{}{"addr": s.addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, err, "HTTP listener stopped")
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
