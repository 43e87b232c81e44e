package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// newWatchCmd creates the command that streams resource change events to
// stdout until interrupted.
func newWatchCmd() *cobra.Command {
	var (
		clusterID string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "watch <type>",
		Short: "Stream resource change events",
		Long: `Watch resources of a type and print one line per change event.

The stream runs until interrupted (Ctrl-C) or until the backend connection
ends. Scoping to a namespace guarantees that no events from outside that
namespace are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := provider.ParseResourceType(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg := newRegistry(cfg, newLogger())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer reg.ClearAll(cmd.Context())

			p, err := resolveProvider(ctx, reg, cfg)
			if err != nil {
				return err
			}
			if err := p.Connect(ctx, clusterID); err != nil {
				return err
			}

			w, err := p.WatchResources(ctx, rt, namespace)
			if err != nil {
				return err
			}
			defer w.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-w.Events():
					if !ok {
						return w.Err()
					}
					ns := event.Resource.Namespace
					if ns == "" {
						ns = "-"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
						event.Type, ns, event.Resource.Name, event.Resource.Status)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&clusterID, "cluster", "c", "",
		"cluster to connect to (default is the provider's current cluster)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "",
		"namespace to scope to (default is all namespaces)")
	return cmd
}
