package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Metrics exporter types.
const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: cloudpilot).
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Enabled determines if instrumentation is active (default: false for
	// zero overhead). Set via INSTRUMENTATION_ENABLED=true.
	Enabled bool

	// MetricsExporter specifies the metrics exporter type.
	// Options: "prometheus", "stdout" (default: "prometheus").
	MetricsExporter string

	// PrometheusEndpoint is the path for the Prometheus metrics endpoint
	// (default: "/metrics").
	PrometheusEndpoint string
}

// DefaultConfig returns a Config with sensible defaults based on
// environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", "cloudpilot"),
		ServiceVersion:     "unknown",
		Enabled:            getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", false),
		MetricsExporter:    getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		PrometheusEndpoint: getEnvOrDefault("PROMETHEUS_ENDPOINT", "/metrics"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterStdout:
		return nil
	default:
		return fmt.Errorf("unsupported metrics exporter: %q", c.MetricsExporter)
	}
}

// getEnvOrDefault returns the value of an environment variable or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment variable
// or a default.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
