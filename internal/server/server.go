package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudpilot-dev/cloudpilot/internal/instrumentation"
	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
	"github.com/cloudpilot-dev/cloudpilot/internal/registry"
	"github.com/cloudpilot-dev/cloudpilot/internal/server/middleware"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Config configures the API server.
type Config struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// Registry resolves provider instances. Required.
	Registry *registry.Registry

	// DefaultProvider is used when a request does not name a provider.
	DefaultProvider provider.Type

	// Logger receives request-scoped log output. Defaults to slog.Default().
	Logger *slog.Logger

	// Instrumentation enables HTTP request metrics when set.
	Instrumentation *instrumentation.Provider

	// Version is reported on health endpoints.
	Version string
}

// Server is the cloudpilot HTTP API. It exposes the provider registry as a
// JSON API plus health endpoints and a streaming watch endpoint.
type Server struct {
	config Config
	logger *slog.Logger
	health *HealthChecker
	server *http.Server
}

// New creates an API server from the given config.
func New(config Config) (*Server, error) {
	if config.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.DefaultProvider == "" {
		config.DefaultProvider = provider.TypeKubernetes
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: config.Logger,
		health: NewHealthChecker(config.Registry, config.Instrumentation, config.Version),
	}

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler builds the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.health.RegisterHealthEndpoints(mux)

	mux.HandleFunc("GET /api/v1/providers", s.handleProviders)
	mux.HandleFunc("GET /api/v1/providers/{type}/features", s.handleFeatures)
	mux.HandleFunc("GET /api/v1/clusters", s.handleClusters)
	mux.HandleFunc("GET /api/v1/clusters/current", s.handleCurrentCluster)
	mux.HandleFunc("GET /api/v1/clusters/{id}", s.handleCluster)
	mux.HandleFunc("POST /api/v1/clusters/{id}/connect", s.handleConnect)
	mux.HandleFunc("POST /api/v1/disconnect", s.handleDisconnect)
	mux.HandleFunc("GET /api/v1/namespaces", s.handleNamespaces)
	mux.HandleFunc("GET /api/v1/resources/{type}", s.handleListResources)
	mux.HandleFunc("GET /api/v1/resources/{type}/{name}", s.handleGetResource)
	mux.HandleFunc("GET /api/v1/watch/{type}", s.handleWatch)

	return middleware.HTTPMetrics(s.config.Instrumentation)(mux)
}

// Health returns the server's health checker for readiness toggling.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Start begins serving. It blocks until the server stops and returns nil on
// graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting API server", slog.String("addr", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.server.Shutdown(ctx)
}

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", logging.Err(err))
	}
}

// writeError maps provider errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, provider.ErrNotImplemented):
		status = http.StatusNotImplemented
	case errors.Is(err, provider.ErrUnknownProviderType),
		errors.Is(err, provider.ErrUnknownResourceType):
		status = http.StatusBadRequest
	case errors.Is(err, provider.ErrClusterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrNotConnected),
		errors.Is(err, provider.ErrNotInitialized):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// providerFor resolves the provider named by the request's "provider" query
// parameter, falling back to the configured default.
func (s *Server) providerFor(r *http.Request) (provider.Provider, error) {
	t := s.config.DefaultProvider
	if v := r.URL.Query().Get("provider"); v != "" {
		parsed, err := provider.ParseType(v)
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	return s.config.Registry.GetProvider(r.Context(), t)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]provider.Type{
		"providers": s.config.Registry.AvailableProviders(),
	})
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	t, err := provider.ParseType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.config.Registry.GetProvider(r.Context(), t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	features, err := provider.Features(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]provider.Feature{"features": features})
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clusters, err := p.ListClusters(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]provider.Cluster{"clusters": clusters})
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cluster, err := p.GetCluster(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cluster == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "cluster not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, cluster)
}

func (s *Server) handleCurrentCluster(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cluster, err := p.CurrentCluster(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cluster == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not connected to a cluster"})
		return
	}
	s.writeJSON(w, http.StatusOK, cluster)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clusterID := r.PathValue("id")
	if err := p.Connect(r.Context(), clusterID); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("connected to cluster", logging.Cluster(clusterID))
	cluster, err := p.CurrentCluster(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cluster)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := p.Disconnect(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	namespaces, err := p.ListNamespaces(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"namespaces": namespaces})
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	rt, err := provider.ParseResourceType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resources, err := p.ListResources(r.Context(), rt, r.URL.Query().Get("namespace"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]provider.Resource{"resources": resources})
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	rt, err := provider.ParseResourceType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resource, err := p.GetResource(r.Context(), rt, r.PathValue("name"), r.URL.Query().Get("namespace"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if resource == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "resource not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, resource)
}

// handleWatch streams resource events as newline-delimited JSON until the
// client disconnects or the backend stream terminates.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	rt, err := provider.ParseResourceType(r.PathValue("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.providerFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	watch, err := p.WatchResources(r.Context(), rt, r.URL.Query().Get("namespace"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer watch.Stop()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-watch.Events():
			if !ok {
				if err := watch.Err(); err != nil {
					s.logger.Warn("watch stream terminated",
						logging.WatchID(watch.ID()), logging.Err(err))
				}
				return
			}
			if err := enc.Encode(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
