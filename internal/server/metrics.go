package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudpilot-dev/cloudpilot/internal/instrumentation"
)

// DefaultMetricsAddr is the default listen address for the metrics server.
const DefaultMetricsAddr = ":9090"

// MetricsServerConfig configures the standalone metrics server.
type MetricsServerConfig struct {
	// Addr is the listen address. Defaults to DefaultMetricsAddr.
	Addr string

	// InstrumentationProvider supplies the Prometheus registry to serve.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves the Prometheus scrape endpoint on a dedicated
// listener, separate from the API server.
type MetricsServer struct {
	addr   string
	server *http.Server
}

// NewMetricsServer creates a metrics server from the given config.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, errors.New("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()

	if registry := config.InstrumentationProvider.PrometheusRegistry(); registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	} else {
		// No Prometheus exporter configured; respond with 404 so probes
		// and scrapers fail visibly instead of hanging.
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics exporter is not prometheus", http.StatusNotFound)
		})
	}

	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Start begins serving. It blocks until the server stops and returns nil on
// graceful shutdown.
func (s *MetricsServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
