package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// Metric attribute keys.
const (
	attrProvider     = "provider"
	attrOperation    = "operation"
	attrStatus       = "status"
	attrResourceType = "resource_type"
	attrEventType    = "event_type"
	attrResult       = "result"
	attrReason       = "reason"
	attrMethod       = "method"
	attrPath         = "path"
	attrCode         = "status_code"
)

// Registry lookup result values.
const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// Metrics provides methods for recording observability metrics. It
// satisfies the metrics recorder interfaces of the registry and the
// Kubernetes provider, keeping those packages free of otel imports.
type Metrics struct {
	providerOpsTotal   metric.Int64Counter
	providerOpDuration metric.Float64Histogram
	watchEventsTotal   metric.Int64Counter

	registryLookupsTotal   metric.Int64Counter
	registryEvictionsTotal metric.Int64Counter
	activeProviders        metric.Int64Gauge

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
}

// newMetrics creates a Metrics instance with all instruments initialized on
// the given meter.
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.providerOpsTotal, err = meter.Int64Counter(
		"cloudpilot.provider.operations",
		metric.WithDescription("Total number of provider operations"),
	); err != nil {
		return nil, err
	}

	if m.providerOpDuration, err = meter.Float64Histogram(
		"cloudpilot.provider.operation.duration",
		metric.WithDescription("Duration of provider operations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.watchEventsTotal, err = meter.Int64Counter(
		"cloudpilot.provider.watch.events",
		metric.WithDescription("Total number of events delivered on watch streams"),
	); err != nil {
		return nil, err
	}

	if m.registryLookupsTotal, err = meter.Int64Counter(
		"cloudpilot.registry.lookups",
		metric.WithDescription("Total number of registry provider lookups"),
	); err != nil {
		return nil, err
	}

	if m.registryEvictionsTotal, err = meter.Int64Counter(
		"cloudpilot.registry.evictions",
		metric.WithDescription("Total number of registry provider evictions"),
	); err != nil {
		return nil, err
	}

	if m.activeProviders, err = meter.Int64Gauge(
		"cloudpilot.registry.providers",
		metric.WithDescription("Current number of cached provider instances"),
	); err != nil {
		return nil, err
	}

	if m.httpRequestsTotal, err = meter.Int64Counter(
		"cloudpilot.http.requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"cloudpilot.http.request.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOperation records one completed provider operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.providerOpsTotal.Add(ctx, 1, attrs)
	m.providerOpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordWatchEvent records one event delivered on a watch stream.
func (m *Metrics) RecordWatchEvent(ctx context.Context, rt provider.ResourceType, et provider.EventType) {
	m.watchEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResourceType, string(rt)),
		attribute.String(attrEventType, string(et)),
	))
}

// RecordLookup records one registry GetProvider call.
func (m *Metrics) RecordLookup(ctx context.Context, t provider.Type, hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	m.registryLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrProvider, string(t)),
		attribute.String(attrResult, result),
	))
}

// RecordEviction records one registry cache eviction.
func (m *Metrics) RecordEviction(ctx context.Context, reason string) {
	m.registryEvictionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrReason, reason),
	))
}

// SetActiveProviders sets the current number of cached provider instances.
func (m *Metrics) SetActiveProviders(ctx context.Context, n int) {
	m.activeProviders.Record(ctx, int64(n))
}

// RecordHTTPRequest records one completed HTTP request. The path should be
// normalized before recording to keep metric cardinality bounded.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.Int(attrCode, statusCode),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
