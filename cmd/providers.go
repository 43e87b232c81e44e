package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// newProvidersCmd creates the command that lists provider backends and,
// for implemented ones, their advertised features.
func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List provider backends and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg := newRegistry(cfg, newLogger())
			defer reg.ClearAll(cmd.Context())

			implemented := make(map[provider.Type]bool)
			for _, t := range reg.AvailableProviders() {
				implemented[t] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tSTATUS\tFEATURES")
			for _, t := range provider.KnownTypes() {
				status := "not implemented"
				featureList := "-"
				if implemented[t] {
					status = "available"
					p, err := reg.GetProvider(cmd.Context(), t)
					if err != nil && !errors.Is(err, provider.ErrNotImplemented) {
						return err
					}
					if p != nil {
						features, err := provider.Features(cmd.Context(), p)
						if err != nil {
							return err
						}
						if len(features) > 0 {
							featureList = ""
							for i, f := range features {
								if i > 0 {
									featureList += ","
								}
								featureList += f.Name
							}
						}
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t, status, featureList)
			}
			return w.Flush()
		},
	}
}
