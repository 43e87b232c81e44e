package provider

import (
	"fmt"
	"strings"
)

// Type identifies a backend technology a provider implements.
type Type string

// The closed set of provider types. Adding a new backend means adding a
// constant here and a construction path in the registry; code that branches
// on Type should switch exhaustively over KnownTypes.
const (
	TypeKubernetes   Type = "kubernetes"
	TypeGCP          Type = "gcp"
	TypeAWS          Type = "aws"
	TypeAzure        Type = "azure"
	TypeDigitalOcean Type = "digital-ocean"
)

// KnownTypes returns all declared provider types, implemented or not.
func KnownTypes() []Type {
	return []Type{TypeKubernetes, TypeGCP, TypeAWS, TypeAzure, TypeDigitalOcean}
}

// ParseType converts a user-supplied string into a provider Type.
// It returns ErrUnknownProviderType for values outside the closed set.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownTypes() {
		if t == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProviderType, s)
}

// ResourceType identifies a kind of cluster-managed object.
type ResourceType string

// The closed set of resource types a provider can list, get, and watch.
const (
	ResourcePod         ResourceType = "pod"
	ResourceService     ResourceType = "service"
	ResourceDeployment  ResourceType = "deployment"
	ResourceStatefulSet ResourceType = "statefulset"
	ResourceDaemonSet   ResourceType = "daemonset"
	ResourceJob         ResourceType = "job"
	ResourceCronJob     ResourceType = "cronjob"
	ResourceConfigMap   ResourceType = "configmap"
	ResourceSecret      ResourceType = "secret"
	ResourceIngress     ResourceType = "ingress"
	ResourceNamespace   ResourceType = "namespace"
)

// KnownResourceTypes returns all resource types in the closed enumeration.
func KnownResourceTypes() []ResourceType {
	return []ResourceType{
		ResourcePod, ResourceService, ResourceDeployment, ResourceStatefulSet,
		ResourceDaemonSet, ResourceJob, ResourceCronJob, ResourceConfigMap,
		ResourceSecret, ResourceIngress, ResourceNamespace,
	}
}

// resourceTypeAliases maps common shorthands (kubectl-style) onto the
// canonical resource type.
var resourceTypeAliases = map[string]ResourceType{
	"po":           ResourcePod,
	"pods":         ResourcePod,
	"svc":          ResourceService,
	"services":     ResourceService,
	"deploy":       ResourceDeployment,
	"deployments":  ResourceDeployment,
	"sts":          ResourceStatefulSet,
	"statefulsets": ResourceStatefulSet,
	"ds":           ResourceDaemonSet,
	"daemonsets":   ResourceDaemonSet,
	"jobs":         ResourceJob,
	"cj":           ResourceCronJob,
	"cronjobs":     ResourceCronJob,
	"cm":           ResourceConfigMap,
	"configmaps":   ResourceConfigMap,
	"secrets":      ResourceSecret,
	"ing":          ResourceIngress,
	"ingresses":    ResourceIngress,
	"ns":           ResourceNamespace,
	"namespaces":   ResourceNamespace,
}

// ParseResourceType converts a user-supplied string, including common
// shorthands like "svc" or "deploy", into a ResourceType. It returns
// ErrUnknownResourceType for values outside the closed set.
func ParseResourceType(s string) (ResourceType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	rt := ResourceType(normalized)
	for _, known := range KnownResourceTypes() {
		if rt == known {
			return known, nil
		}
	}
	if alias, ok := resourceTypeAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResourceType, s)
}

// ResourceStatus is the backend's last known observation of a resource.
// It reflects the state at snapshot time, not necessarily real-time truth.
type ResourceStatus string

const (
	StatusRunning     ResourceStatus = "running"
	StatusPending     ResourceStatus = "pending"
	StatusFailed      ResourceStatus = "failed"
	StatusSucceeded   ResourceStatus = "succeeded"
	StatusUnknown     ResourceStatus = "unknown"
	StatusTerminating ResourceStatus = "terminating"
)

// ClusterStatus is the connection state of a cluster as tracked by its
// owning provider. External code must treat it as read-only; transitions
// are driven only through the provider's connect/disconnect flows.
type ClusterStatus string

const (
	ClusterConnected    ClusterStatus = "connected"
	ClusterDisconnected ClusterStatus = "disconnected"
	ClusterError        ClusterStatus = "error"
)

// Cluster is a single addressable backend endpoint a provider can connect
// to. Instances are value snapshots discovered through ListClusters or
// GetCluster.
type Cluster struct {
	// ID uniquely identifies the cluster within its provider.
	ID string `json:"id"`

	// Name is the human-readable cluster name.
	Name string `json:"name"`

	// Provider is the backend type that owns this cluster.
	Provider Type `json:"provider"`

	// Status is the provider-tracked connection state.
	Status ClusterStatus `json:"status"`

	// Region is the cloud region, when the backend has one.
	Region string `json:"region,omitempty"`

	// Context is the backend-side context or profile name, when applicable.
	Context string `json:"context,omitempty"`

	// Namespace is the cluster's default namespace, when applicable.
	Namespace string `json:"namespace,omitempty"`

	// Server is the API endpoint of the cluster.
	Server string `json:"server,omitempty"`

	// Version is the backend version reported after a successful connect.
	Version string `json:"version,omitempty"`

	// Metadata carries free-form provider-specific details.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Capabilities describes the optional operations a concrete resource
// supports. A nil Capabilities on a Resource means the resource advertises
// none; this is distinct from an operation that is supported but fails.
type Capabilities struct {
	Logs   bool `json:"logs"`
	Exec   bool `json:"exec"`
	Delete bool `json:"delete"`
	Scale  bool `json:"scale"`
}

// Resource is a cluster-managed object observed through a provider.
// Type and Provider are immutable after construction; Status reflects the
// backend's last known observation.
type Resource struct {
	// ID uniquely identifies the resource within its namespace scope.
	ID string `json:"id"`

	// Name is the resource name.
	Name string `json:"name"`

	// Namespace is empty for cluster-scoped resources.
	Namespace string `json:"namespace,omitempty"`

	// Type is the resource's kind within the closed enumeration.
	Type ResourceType `json:"type"`

	// Status is the backend's last observed state.
	Status ResourceStatus `json:"status"`

	// Provider is the backend type the resource was observed through.
	Provider Type `json:"provider"`

	// Metadata carries free-form provider-specific details.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Capabilities is present only when the concrete resource supports
	// optional operations; nil means none are advertised.
	Capabilities *Capabilities `json:"capabilities,omitempty"`
}

// EventType tags a resource change notification.
type EventType string

const (
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
)

// ResourceEvent is a single change notification carried by a ResourceWatch.
// Within one watch stream, events for the same resource ID preserve backend
// delivery order; no ordering is guaranteed across resource IDs.
type ResourceEvent struct {
	Type     EventType `json:"type"`
	Resource Resource  `json:"resource"`
}

// Feature advertises a non-standard capability a provider exposes beyond
// the base contract. Purely descriptive; never required for basic operation.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}
