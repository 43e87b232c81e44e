package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cloudpilot-dev/cloudpilot/internal/config"
	"github.com/cloudpilot-dev/cloudpilot/internal/instrumentation"
	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
	"github.com/cloudpilot-dev/cloudpilot/internal/registry"
	"github.com/cloudpilot-dev/cloudpilot/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// newServeCmd creates the command that runs the cloudpilot API server.
func newServeCmd() *cobra.Command {
	var (
		addr        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cloudpilot HTTP API server",
		Long: `Start the HTTP API server, serving the provider registry as a JSON API
with health endpoints and a streaming watch endpoint, plus a dedicated
metrics listener for Prometheus scrapes.

Both servers shut down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if metricsAddr != "" {
				cfg.Server.MetricsAddr = metricsAddr
			}
			return runServe(cmd.Context(), cfg, newLogger())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "API server listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics server listen address")
	return cmd
}

// runServe wires instrumentation, the registry, and both HTTP servers
// together and blocks until shutdown completes.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instrCfg := instrumentation.DefaultConfig()
	instrCfg.Enabled = cfg.Instrumentation.Enabled
	if cfg.Instrumentation.MetricsExporter != "" {
		instrCfg.MetricsExporter = cfg.Instrumentation.MetricsExporter
	}
	if rootCmd.Version != "" {
		instrCfg.ServiceVersion = rootCmd.Version
	}

	instr, err := instrumentation.NewProvider(ctx, instrCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := instr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithKubeconfig(cfg.Kubernetes.Kubeconfig),
		registry.WithMetrics(instr.Metrics()),
		registry.WithProviderMetrics(instr.Metrics()),
	)
	defer reg.ClearAll(context.Background())

	defaultType, err := provider.ParseType(cfg.DefaultProvider)
	if err != nil {
		return err
	}

	apiServer, err := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		Registry:        reg,
		DefaultProvider: defaultType,
		Logger:          logger,
		Instrumentation: instr,
		Version:         rootCmd.Version,
	})
	if err != nil {
		return err
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Server.MetricsAddr,
		InstrumentationProvider: instr,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Start)
	g.Go(func() error {
		logger.Info("starting metrics server", slog.String("addr", metricsServer.Addr()))
		return metricsServer.Start()
	})

	// Shut both servers down when the group context ends, whether from a
	// signal or a server failure.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
