package kubernetes

import (
	"context"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

var _ provider.FeatureAdvertiser = (*Provider)(nil)

// ProviderFeatures advertises the capabilities this provider exposes beyond
// the base contract. Purely descriptive; the UI uses it to decide which
// actions to offer.
func (p *Provider) ProviderFeatures(ctx context.Context) ([]provider.Feature, error) {
	return []provider.Feature{
		{
			Name:        "pod-logs",
			Description: "Stream container logs from pods",
			Enabled:     true,
		},
		{
			Name:        "pod-exec",
			Description: "Execute commands inside pod containers",
			Enabled:     true,
		},
		{
			Name:        "port-forward",
			Description: "Forward local ports to pods and services",
			Enabled:     true,
		},
		{
			Name:        "scale",
			Description: "Scale deployments and stateful sets",
			Enabled:     true,
		},
	}, nil
}
