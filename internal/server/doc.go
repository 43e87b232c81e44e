// Package server exposes the cloudpilot control plane over HTTP.
//
// It provides a small JSON API backed by the provider registry, health
// endpoints for liveness and readiness probes, and a dedicated metrics
// server that serves the Prometheus scrape endpoint. All servers support
// graceful shutdown via context cancellation.
package server
