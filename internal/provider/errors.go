package provider

import "errors"

// Sentinel errors for common provider failure scenarios.
// These errors can be checked using errors.Is() for programmatic handling,
// and carry distinguishable messages so the presentation layer can tell
// "not supported yet" apart from "could not reach cluster".
var (
	// ErrNotImplemented indicates a provider type that is declared in the
	// closed enumeration but has no concrete backend implementation yet.
	ErrNotImplemented = errors.New("provider not implemented")

	// ErrUnknownProviderType indicates a provider type outside the closed
	// enumeration, with no registered construction path.
	ErrUnknownProviderType = errors.New("unknown provider type")

	// ErrUnknownResourceType indicates a resource type outside the closed
	// enumeration.
	ErrUnknownResourceType = errors.New("unknown resource type")

	// ErrNotInitialized indicates a provider operation was invoked before
	// Initialize completed. The registry initializes every instance it
	// hands out, so callers normally never observe this.
	ErrNotInitialized = errors.New("provider not initialized")

	// ErrNotConnected indicates a session-scoped operation was invoked
	// before a successful Connect. Cluster-discovery calls (ListClusters,
	// GetCluster) are exempt and may run pre-connection.
	ErrNotConnected = errors.New("not connected to a cluster")

	// ErrClusterNotFound indicates a Connect against a cluster ID the
	// provider does not know. Read-only lookups of an unknown ID return an
	// empty result instead.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrConnectionFailed indicates a network or backend-API failure while
	// establishing or using a cluster session.
	ErrConnectionFailed = errors.New("failed to connect to cluster")

	// ErrWatchClosed indicates the transport behind a watch stream failed
	// or was closed by the backend while the provider was still connected.
	// Callers resume by invoking WatchResources again; watches are never
	// retried internally.
	ErrWatchClosed = errors.New("watch transport closed")
)
