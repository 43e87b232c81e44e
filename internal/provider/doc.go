// Package provider defines the contract every cloud/cluster backend must
// satisfy, together with the shared vocabulary the rest of the application
// uses to talk about backends: clusters, resources, resource events, and the
// closed enumerations for provider and resource types.
//
// The interfaces are broken down into focused concerns:
//
//   - Provider: the full polymorphic capability set (connection lifecycle,
//     cluster discovery, resource reads, watching, namespace listing)
//   - FeatureAdvertiser: optional, discovered by type assertion, for
//     backends that expose capabilities beyond the base contract
//
// Clusters and resources returned by a Provider are value snapshots. Callers
// must not assume a returned object is kept live or mutated in place; the
// backend's notion of current state is observed again through a fresh call
// or through a ResourceWatch stream.
//
// Concrete implementations live in sibling packages (internal/kubernetes);
// instances are obtained exclusively through the registry in
// internal/registry, never constructed directly by application code.
package provider
