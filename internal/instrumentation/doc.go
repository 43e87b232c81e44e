// Package instrumentation provides OpenTelemetry metrics for cloudpilot.
//
// It exposes a Provider that owns the MeterProvider lifecycle and a Metrics
// type that records provider operations, watch stream events, and registry
// cache activity. Metrics are exported through a Prometheus registry (for
// the dedicated metrics server) or a stdout exporter for debugging.
//
// Instrumentation is disabled by default for zero overhead; when disabled,
// all recording methods are no-ops backed by the otel noop meter.
package instrumentation
