package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newClustersCmd creates the command that lists the clusters a provider
// knows about. Listing works pre-connection.
func newClustersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List clusters known to the provider",
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

			clusters, err := p.ListClusters(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSERVER\tNAMESPACE")
			for _, c := range clusters {
				ns := c.Namespace
				if ns == "" {
					ns = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Status, c.Server, ns)
			}
			return w.Flush()
		},
	}
}
