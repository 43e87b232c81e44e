package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// newResourcesCmd creates the command group for listing and inspecting
// workload resources.
func newResourcesCmd() *cobra.Command {
	var (
		clusterID string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "resources <type> [name]",
		Short: "List or get workload resources",
		Long: `List resources of a type, or get a single resource by name.

The type accepts common short names (po, svc, deploy, sts, ds, cj, cm, ing, ns)
as well as the full names. An empty namespace means all namespaces.`,
		Args: cobra.RangeArgs(1, 2),
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
			defer reg.ClearAll(cmd.Context())

			p, err := resolveProvider(cmd.Context(), reg, cfg)
			if err != nil {
				return err
			}
			if err := p.Connect(cmd.Context(), clusterID); err != nil {
				return err
			}

			if len(args) == 2 {
				resource, err := p.GetResource(cmd.Context(), rt, args[1], namespace)
				if err != nil {
					return err
				}
				if resource == nil {
					return fmt.Errorf("resource %q not found", args[1])
				}
				printResources(cmd, []provider.Resource{*resource})
				return nil
			}

			resources, err := p.ListResources(cmd.Context(), rt, namespace)
			if err != nil {
				return err
			}
			printResources(cmd, resources)
			return nil
		},
	}

	cmd.Flags().StringVarP(&clusterID, "cluster", "c", "",
		"cluster to connect to (default is the provider's current cluster)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "",
		"namespace to scope to (default is all namespaces)")
	return cmd
}

func printResources(cmd *cobra.Command, resources []provider.Resource) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tNAME\tTYPE\tSTATUS")
	for _, r := range resources {
		ns := r.Namespace
		if ns == "" {
			ns = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ns, r.Name, r.Type, r.Status)
	}
	_ = w.Flush()
}
