// Package config loads the cloudpilot configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// Default listen addresses for the API and metrics servers.
const (
	DefaultAddr        = ":8080"
	DefaultMetricsAddr = ":9090"
)

// KubernetesConfig holds settings for the Kubernetes provider.
type KubernetesConfig struct {
	// Kubeconfig is an explicit kubeconfig path. Empty means the
	// standard loading rules (KUBECONFIG, ~/.kube/config).
	Kubeconfig string `yaml:"kubeconfig"`
}

// ServerConfig holds listen addresses for the HTTP surfaces.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metricsAddr"`
}

// InstrumentationConfig holds metrics pipeline settings.
type InstrumentationConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MetricsExporter string `yaml:"metricsExporter"`
}

// Config is the top-level cloudpilot configuration.
type Config struct {
	// DefaultProvider is the provider type commands use when none is
	// given on the command line.
	DefaultProvider string `yaml:"defaultProvider"`

	Kubernetes      KubernetesConfig      `yaml:"kubernetes"`
	Server          ServerConfig          `yaml:"server"`
	Instrumentation InstrumentationConfig `yaml:"instrumentation"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DefaultProvider: string(provider.TypeKubernetes),
		Server: ServerConfig{
			Addr:        DefaultAddr,
			MetricsAddr: DefaultMetricsAddr,
		},
		Instrumentation: InstrumentationConfig{
			Enabled:         true,
			MetricsExporter: "prometheus",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cloudpilot", "config.yaml")
}

// Load reads the configuration at path, applying defaults for missing
// fields. When path is empty the default location is used and a missing
// file is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that have closed domains.
func (c *Config) Validate() error {
	if c.DefaultProvider != "" {
		if _, err := provider.ParseType(c.DefaultProvider); err != nil {
			return fmt.Errorf("invalid defaultProvider: %w", err)
		}
	}
	switch c.Instrumentation.MetricsExporter {
	case "", "prometheus", "stdout":
	default:
		return fmt.Errorf("invalid metricsExporter: %q", c.Instrumentation.MetricsExporter)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = DefaultMetricsAddr
	}
	return nil
}
