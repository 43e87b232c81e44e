// Package kubernetes implements the provider contract for Kubernetes-style
// backends using client-go.
//
// Clusters map onto kubeconfig contexts: Initialize loads the kubeconfig
// (explicit path or the default loading rules), ListClusters enumerates its
// contexts, and Connect builds a dynamic client plus discovery client for
// one context and verifies reachability with a server version probe.
//
// Resource operations go through the dynamic client with a closed mapping
// from the resource type enumeration to GroupVersionResources; an empty
// namespace argument means all namespaces. Watches wrap client-go watch
// channels into provider.ResourceWatch streams with client-side scope
// filtering and guaranteed release of the backend watch on cancellation.
package kubernetes
