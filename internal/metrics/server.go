package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warden/internal/config"
	"warden/pkg/logging"
)

// Server serves the Prometheus exposition endpoint.
type Server struct {
	cfg  config.MetricsConfig
	http *http.Server
}

// NewServer builds the exposition server for the given instrument set.
// Returns nil when metrics are disabled.
func NewServer(cfg config.MetricsConfig, m *Metrics) *Server {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the context is canceled, then shuts down gracefully.
// Blocks; run it in its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Metrics", "Serving metrics on %s%s", s.cfg.Addr, s.cfg.Path)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
