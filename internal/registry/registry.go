// Package registry owns the lifetime of provider instances. It is the
// single controlled point of construction, caching, and disposal, keyed by
// provider type; no other component may construct a provider directly.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cloudpilot-dev/cloudpilot/internal/kubernetes"
	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// Factory constructs a provider instance. The registry initializes the
// instance after construction, so factories must not call Initialize
// themselves.
type Factory func(ctx context.Context) (provider.Provider, error)

// MetricsRecorder receives registry cache metrics. This decouples the
// registry from the concrete instrumentation implementation.
type MetricsRecorder interface {
	// RecordLookup records one GetProvider call and whether it hit the cache.
	RecordLookup(ctx context.Context, t provider.Type, hit bool)

	// RecordEviction records one cache eviction with the reason
	// ("manual" or "clear-all").
	RecordEviction(ctx context.Context, reason string)

	// SetActiveProviders sets the current number of cached instances.
	SetActiveProviders(ctx context.Context, n int)
}

// noopMetricsRecorder is the default MetricsRecorder.
type noopMetricsRecorder struct{}

func (noopMetricsRecorder) RecordLookup(context.Context, provider.Type, bool) {}
func (noopMetricsRecorder) RecordEviction(context.Context, string)            {}
func (noopMetricsRecorder) SetActiveProviders(context.Context, int)           {}

// Registry creates, lazily initializes, caches, and tears down provider
// instances. At most one live instance per provider type exists at any time.
//
// Construction and initialization for a given type run under a per-type
// guard (singleflight), so concurrent GetProvider calls for the same
// uninitialized type observe exactly one Initialize. A RemoveProvider or
// ClearAll racing an in-flight GetProvider evicts only what is already
// cached; the in-flight instance is stored when its construction completes,
// so the new instance deterministically wins such races.
type Registry struct {
	mu        sync.RWMutex
	providers map[provider.Type]provider.Provider

	initGroup singleflight.Group
	factories map[provider.Type]Factory

	logger  *slog.Logger
	metrics MetricsRecorder

	kubeconfigPath string
	k8sMetrics     kubernetes.OperationRecorder
}

// Option is a functional option for configuring the Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry and its default providers.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the registry cache.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithKubeconfig sets the kubeconfig path used by the default Kubernetes
// provider factory.
func WithKubeconfig(path string) Option {
	return func(r *Registry) {
		r.kubeconfigPath = path
	}
}

// WithProviderMetrics sets the operation recorder handed to the default
// Kubernetes provider factory.
func WithProviderMetrics(recorder kubernetes.OperationRecorder) Option {
	return func(r *Registry) {
		r.k8sMetrics = recorder
	}
}

// WithFactory registers a construction path for a provider type, replacing
// any default. This is the extension point for new backends; tests use it
// to install fakes.
func WithFactory(t provider.Type, f Factory) Option {
	return func(r *Registry) {
		r.factories[t] = f
	}
}

// New creates a Registry. Provider types without a registered factory fail
// GetProvider with a not-implemented error.
func New(opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[provider.Type]provider.Provider),
		factories: make(map[provider.Type]Factory),
		logger:    slog.Default(),
		metrics:   noopMetricsRecorder{},
	}

	for _, opt := range opts {
		opt(r)
	}

	// The closed construction dispatch: kubernetes is the only backend with
	// a working implementation today. gcp, aws, azure, and digital-ocean are
	// declared in the type enumeration but deliberately have no factory.
	if _, ok := r.factories[provider.TypeKubernetes]; !ok {
		r.factories[provider.TypeKubernetes] = func(ctx context.Context) (provider.Provider, error) {
			return kubernetes.New(kubernetes.Config{
				KubeconfigPath: r.kubeconfigPath,
				Logger:         r.logger,
				Metrics:        r.k8sMetrics,
			}), nil
		}
	}

	return r
}

// GetProvider returns the cached instance for the given type, constructing
// and initializing one first when absent. Construction errors propagate to
// the caller and leave the cache unaffected, so a later retry can succeed.
func (r *Registry) GetProvider(ctx context.Context, t provider.Type) (provider.Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[t]
	r.mu.RUnlock()
	if ok {
		r.metrics.RecordLookup(ctx, t, true)
		return p, nil
	}

	v, err, _ := r.initGroup.Do(string(t), func() (interface{}, error) {
		// Double-check inside the flight: a concurrent call may have
		// finished construction while we waited.
		r.mu.RLock()
		p, ok := r.providers[t]
		r.mu.RUnlock()
		if ok {
			return p, nil
		}

		r.metrics.RecordLookup(ctx, t, false)

		factory, ok := r.factories[t]
		if !ok {
			if !isKnownType(t) {
				return nil, fmt.Errorf("%w: %q", provider.ErrUnknownProviderType, t)
			}
			return nil, fmt.Errorf("%w: %q", provider.ErrNotImplemented, t)
		}

		p, err := factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to construct %s provider: %w", t, err)
		}
		if err := p.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize %s provider: %w", t, err)
		}

		r.mu.Lock()
		r.providers[t] = p
		size := len(r.providers)
		r.mu.Unlock()

		r.metrics.SetActiveProviders(ctx, size)
		r.logger.Info("provider initialized", logging.Provider(string(t)))
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(provider.Provider), nil
}

// RemoveProvider disconnects and evicts the cached instance for the given
// type, if any. Disconnect failures are logged, never propagated: eviction
// always succeeds from the caller's point of view. A subsequent GetProvider
// constructs a fresh instance.
func (r *Registry) RemoveProvider(ctx context.Context, t provider.Type) {
	r.mu.Lock()
	p, ok := r.providers[t]
	delete(r.providers, t)
	size := len(r.providers)
	r.mu.Unlock()

	if !ok {
		return
	}

	if err := p.Disconnect(ctx); err != nil {
		r.logger.Warn("provider disconnect failed during eviction",
			logging.Provider(string(t)), logging.Err(err))
	}
	r.metrics.RecordEviction(ctx, "manual")
	r.metrics.SetActiveProviders(ctx, size)
	r.logger.Info("provider evicted", logging.Provider(string(t)))
}

// ClearAll evicts every cached provider, disconnecting each best-effort.
func (r *Registry) ClearAll(ctx context.Context) {
	r.mu.Lock()
	evicted := r.providers
	r.providers = make(map[provider.Type]provider.Provider)
	r.mu.Unlock()

	for t, p := range evicted {
		if err := p.Disconnect(ctx); err != nil {
			r.logger.Warn("provider disconnect failed during eviction",
				logging.Provider(string(t)), logging.Err(err))
		}
		r.metrics.RecordEviction(ctx, "clear-all")
	}
	r.metrics.SetActiveProviders(ctx, 0)
}

// AvailableProviders returns the provider types that currently have a
// working construction path, sorted for stable UI enumeration. Stub-only
// types are excluded.
func (r *Registry) AvailableProviders() []provider.Type {
	types := make([]provider.Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Size returns the number of cached provider instances.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// isKnownType reports whether t belongs to the closed type enumeration.
func isKnownType(t provider.Type) bool {
	for _, known := range provider.KnownTypes() {
		if t == known {
			return true
		}
	}
	return false
}
