package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cloudpilot-dev/cloudpilot/internal/instrumentation"
	"github.com/cloudpilot-dev/cloudpilot/internal/registry"
)

// HealthChecker provides liveness and readiness endpoints.
type HealthChecker struct {
	// ready indicates whether the server is ready to receive traffic
	ready atomic.Bool

	registry        *registry.Registry
	instrumentation *instrumentation.Provider
	version         string
	startTime       time.Time
}

// NewHealthChecker creates a HealthChecker. The registry is required; the
// instrumentation provider may be nil.
func NewHealthChecker(reg *registry.Registry, ip *instrumentation.Provider, version string) *HealthChecker {
	h := &HealthChecker{
		registry:        reg,
		instrumentation: ip,
		version:         version,
		startTime:       time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
	Uptime  string            `json:"uptime,omitempty"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// Liveness probes indicate whether the process should be restarted; if we
// can respond, we're alive.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			Version: h.version,
		})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
// Readiness probes indicate whether the server is ready to receive traffic.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks := make(map[string]string)
		allOk := true

		if !h.ready.Load() {
			checks["ready"] = "not ready"
			allOk = false
		} else {
			checks["ready"] = "ok"
		}

		if h.registry != nil {
			checks["registry"] = "ok"
		} else {
			checks["registry"] = "missing"
			allOk = false
		}

		if h.instrumentation != nil {
			if h.instrumentation.Enabled() {
				checks["instrumentation"] = "ok"
			} else {
				checks["instrumentation"] = "disabled"
			}
		}

		response := HealthResponse{
			Checks:  checks,
			Version: h.version,
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
		}

		if allOk {
			response.Status = "ok"
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}
