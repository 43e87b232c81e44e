package instrumentation

import (
	"context"
	"fmt"

	prometheusclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// meterName is the instrumentation scope name for cloudpilot metrics.
const meterName = "github.com/cloudpilot-dev/cloudpilot"

// Provider owns the OpenTelemetry metrics pipeline. When instrumentation is
// disabled it hands out metrics backed by the noop meter, so callers never
// need to branch on the enabled state.
type Provider struct {
	config  Config
	enabled bool

	meterProvider *sdkmetric.MeterProvider
	promRegistry  *prometheusclient.Registry
	metrics       *Metrics
}

// NewProvider creates an instrumentation provider from the given config.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{config: config}

	if !config.Enabled {
		metrics, err := newMetrics(noop.NewMeterProvider().Meter(meterName))
		if err != nil {
			return nil, err
		}
		p.metrics = metrics
		return p, nil
	}

	res, err := sdkresource.Merge(sdkresource.Default(),
		sdkresource.NewSchemaless(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	var reader sdkmetric.Reader
	switch config.MetricsExporter {
	case "", ExporterPrometheus:
		registry := prometheusclient.NewRegistry()
		exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.promRegistry = registry
		reader = exporter
	case ExporterStdout:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter: %q", config.MetricsExporter)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	metrics, err := newMetrics(p.meterProvider.Meter(meterName))
	if err != nil {
		_ = p.meterProvider.Shutdown(ctx)
		return nil, err
	}
	p.metrics = metrics
	p.enabled = true

	return p, nil
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool { return p.enabled }

// Config returns the configuration the provider was built from.
func (p *Provider) Config() Config { return p.config }

// Metrics returns the metrics recorder. Never nil; when instrumentation is
// disabled the instruments are noops.
func (p *Provider) Metrics() *Metrics { return p.metrics }

// PrometheusRegistry returns the registry the Prometheus exporter writes
// to, or nil when a different exporter is configured.
func (p *Provider) PrometheusRegistry() *prometheusclient.Registry { return p.promRegistry }

// Shutdown flushes and stops the metrics pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
