package provider

import "context"

// Provider is the minimum polymorphic surface every backend implements.
// All methods may fail with a provider-defined error; all but construction
// may block on network I/O and honor context cancellation.
//
// Session-scoped operations (ListResources, GetResource, WatchResources,
// ListNamespaces) fail with ErrNotConnected before a successful Connect.
// Cluster-discovery operations (ListClusters, GetCluster) may run
// pre-connection.
type Provider interface {
	// Type returns the backend type this provider implements.
	Type() Type

	// Initialize performs one-time setup such as credential discovery and
	// client construction. The registry calls it exactly once, right after
	// construction; a second call is an error.
	Initialize(ctx context.Context) error

	// Connect establishes an active session against the cluster with the
	// given ID and updates the provider's notion of the current cluster.
	// It fails with ErrClusterNotFound for an unknown ID and with
	// ErrConnectionFailed when the cluster is unreachable.
	Connect(ctx context.Context, clusterID string) error

	// Disconnect releases the active session and ends any open watch
	// streams cleanly. Safe to call when already disconnected.
	Disconnect(ctx context.Context) error

	// IsConnected reports the current connection state. It reflects
	// reality, not cached intent, and never blocks on the network.
	IsConnected() bool

	// ListClusters enumerates the clusters the provider knows about.
	ListClusters(ctx context.Context) ([]Cluster, error)

	// GetCluster returns a snapshot of the cluster with the given ID, or
	// nil (and a nil error) when the ID is unknown.
	GetCluster(ctx context.Context, id string) (*Cluster, error)

	// CurrentCluster returns a snapshot of the connected cluster, or nil
	// (and a nil error) when not connected.
	CurrentCluster(ctx context.Context) (*Cluster, error)

	// ListResources returns a snapshot of resources of the given type.
	// An empty namespace means all namespaces.
	ListResources(ctx context.Context, rt ResourceType, namespace string) ([]Resource, error)

	// GetResource returns a single resource snapshot, or nil (and a nil
	// error) when no resource with the given ID exists in the namespace.
	GetResource(ctx context.Context, rt ResourceType, id, namespace string) (*Resource, error)

	// WatchResources opens a live stream of change notifications for the
	// given resource type, optionally scoped to a namespace (empty means
	// all namespaces). The stream never emits events outside that scope.
	// The backend subscription is established before WatchResources
	// returns, so setup failures surface here rather than mid-stream.
	WatchResources(ctx context.Context, rt ResourceType, namespace string) (*ResourceWatch, error)

	// ListNamespaces returns the names of the namespaces the connected
	// cluster knows about.
	ListNamespaces(ctx context.Context) ([]string, error)
}

// FeatureAdvertiser is an optional capability a provider may implement to
// advertise features beyond the base contract. Discover it by type
// assertion; absence means no extra features are advertised.
type FeatureAdvertiser interface {
	// ProviderFeatures describes the provider's non-standard capabilities.
	ProviderFeatures(ctx context.Context) ([]Feature, error)
}

// Features returns the extra features p advertises, or nil when p does not
// implement FeatureAdvertiser.
func Features(ctx context.Context, p Provider) ([]Feature, error) {
	advertiser, ok := p.(FeatureAdvertiser)
	if !ok {
		return nil, nil
	}
	return advertiser.ProviderFeatures(ctx)
}
