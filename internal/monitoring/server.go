// internal/monitoring/server.go
package monitoring

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// ServerConfig configures the monitoring HTTP server
type ServerConfig struct {
	ListenAddress string
	MetricsPath   string
	HealthPath    string
	// StallAfter marks the run unhealthy when no click happened for this long
	StallAfter time.Duration
}

// Server exposes metrics and run health over HTTP
type Server struct {
	config  ServerConfig
	metrics *MetricsManager
	status  StatusProvider
	started time.Time
	server  *http.Server
}

// NewServer creates a monitoring server
func NewServer(config ServerConfig, metrics *MetricsManager, status StatusProvider) *Server {
	if config.ListenAddress == "" {
		config.ListenAddress = ":9090"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.HealthPath == "" {
		config.HealthPath = "/healthz"
	}

	s := &Server{
		config:  config,
		metrics: metrics,
		status:  status,
		started: time.Now(),
	}
	s.server = &http.Server{
		Addr:              config.ListenAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle(s.config.MetricsPath, s.metrics.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc(s.config.HealthPath, HealthHandler(s.status, s.started, s.config.StallAfter)).Methods(http.MethodGet)
	return r
}

// Start serves until ctx is done. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
