package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudpilot-dev/cloudpilot/internal/config"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
	"github.com/cloudpilot-dev/cloudpilot/internal/registry"
)

// Persistent flag values shared by all subcommands.
var (
	cfgFile        string
	kubeconfigPath string
	providerName   string
	logLevel       string
)

// rootCmd represents the base command for the cloudpilot application.
var rootCmd = &cobra.Command{
	Use:   "cloudpilot",
	Short: "Control plane for browsing workloads across cloud and cluster backends",
	Long: `cloudpilot connects to cloud and cluster backends through a uniform
provider interface and lets you browse clusters, namespaces, and workload
resources, watch them for changes, and serve the whole thing as an HTTP API.

Kubernetes is the first fully supported backend; other providers report
themselves as not implemented until their integrations land.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "cloudpilot version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.config/cloudpilot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&kubeconfigPath, "kubeconfig", "",
		"path to the kubeconfig file (default is the standard loading rules)")
	rootCmd.PersistentFlags().StringVarP(&providerName, "provider", "p", "",
		"provider backend to use (kubernetes, gcp, aws, azure, digital-ocean)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newProvidersCmd())
	rootCmd.AddCommand(newClustersCmd())
	rootCmd.AddCommand(newNamespacesCmd())
	rootCmd.AddCommand(newResourcesCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if kubeconfigPath != "" {
		cfg.Kubernetes.Kubeconfig = kubeconfigPath
	}
	if providerName != "" {
		cfg.DefaultProvider = providerName
	}
	return cfg, nil
}

// newLogger builds the application logger from the --log-level flag.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newRegistry builds a provider registry from the loaded configuration.
func newRegistry(cfg *config.Config, logger *slog.Logger) *registry.Registry {
	return registry.New(
		registry.WithLogger(logger),
		registry.WithKubeconfig(cfg.Kubernetes.Kubeconfig),
	)
}

// resolveProvider parses the configured provider type and fetches its
// instance from the registry.
func resolveProvider(ctx context.Context, reg *registry.Registry, cfg *config.Config) (provider.Provider, error) {
	t, err := provider.ParseType(cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}
	return reg.GetProvider(ctx, t)
}
