package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newNamespacesCmd creates the command that lists namespaces on a cluster.
func newNamespacesCmd() *cobra.Command {
	var clusterID string

	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List namespaces on the connected cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			namespaces, err := p.ListNamespaces(cmd.Context())
			if err != nil {
				return err
			}
			for _, ns := range namespaces {
				fmt.Fprintln(cmd.OutOrStdout(), ns)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&clusterID, "cluster", "c", "",
		"cluster to connect to (default is the provider's current cluster)")
	return cmd
}
