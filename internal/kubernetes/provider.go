package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

const (
	// Default client-side rate limits for the Kubernetes API.
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
)

// Operation status values reported to the metrics recorder.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// OperationRecorder receives provider operation and watch event metrics.
// This keeps the provider decoupled from the concrete instrumentation
// implementation; the zero-value provider uses a no-op recorder.
type OperationRecorder interface {
	// RecordOperation records one completed provider operation.
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)

	// RecordWatchEvent records one event delivered on a watch stream.
	RecordWatchEvent(ctx context.Context, rt provider.ResourceType, et provider.EventType)
}

// noopRecorder is the default OperationRecorder.
type noopRecorder struct{}

func (noopRecorder) RecordOperation(context.Context, string, string, time.Duration) {}
func (noopRecorder) RecordWatchEvent(context.Context, provider.ResourceType, provider.EventType) {
}

// Config holds construction options for the Kubernetes provider.
type Config struct {
	// KubeconfigPath overrides the default kubeconfig loading rules.
	KubeconfigPath string

	// Logger receives structured operation logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives operation metrics. Defaults to a no-op recorder.
	Metrics OperationRecorder
}

// session holds the client state of one active cluster connection. It is
// replaced wholesale on Connect and dropped on Disconnect, so watch pumps
// can hold a stable reference to the session they were started under.
type session struct {
	cluster   provider.Cluster
	dynamic   dynamic.Interface
	discovery discovery.DiscoveryInterface
	ctx       context.Context
	cancel    context.CancelFunc
}

// Provider implements provider.Provider for Kubernetes clusters.
type Provider struct {
	logger         *slog.Logger
	metrics        OperationRecorder
	kubeconfigPath string

	mu          sync.RWMutex
	kubeconfig  *clientcmdapi.Config
	initialized bool
	sess        *session

	// buildClients constructs the per-connection clients. Overridable so
	// tests can substitute fakes without a reachable API server.
	buildClients func(cfg *rest.Config) (dynamic.Interface, discovery.DiscoveryInterface, error)
}

var _ provider.Provider = (*Provider)(nil)

// New creates a Kubernetes provider. Initialize must run before any other
// operation; the registry takes care of that.
func New(cfg Config) *Provider {
	p := &Provider{
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		kubeconfigPath: cfg.KubeconfigPath,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = noopRecorder{}
	}
	p.buildClients = defaultBuildClients
	return p
}

// defaultBuildClients constructs real client-go clients from a rest config.
func defaultBuildClients(cfg *rest.Config) (dynamic.Interface, discovery.DiscoveryInterface, error) {
	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	return dynamicClient, discoveryClient, nil
}

// Type returns provider.TypeKubernetes.
func (p *Provider) Type() provider.Type { return provider.TypeKubernetes }

// Initialize loads the kubeconfig and catalogs its contexts as clusters.
// The registry calls it exactly once after construction; a second call is
// an error.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return errors.New("kubernetes provider already initialized")
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if p.kubeconfigPath != "" {
		rules.ExplicitPath = p.kubeconfigPath
	}

	kubeconfig, err := rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	p.kubeconfig = kubeconfig
	p.initialized = true

	p.logger.Info("kubernetes provider initialized",
		"contexts", len(kubeconfig.Contexts),
		"current_context", kubeconfig.CurrentContext)
	return nil
}

// Connect establishes a session against the cluster (kubeconfig context)
// with the given ID. An empty ID means the kubeconfig's current context.
// An existing session is torn down first.
func (p *Provider) Connect(ctx context.Context, clusterID string) error {
	start := time.Now()

	p.mu.RLock()
	if !p.initialized {
		p.mu.RUnlock()
		return provider.ErrNotInitialized
	}
	kubeconfig := p.kubeconfig
	p.mu.RUnlock()

	if clusterID == "" {
		clusterID = kubeconfig.CurrentContext
	}

	kctx, ok := kubeconfig.Contexts[clusterID]
	if !ok {
		return fmt.Errorf("%w: %q", provider.ErrClusterNotFound, clusterID)
	}

	restCfg, err := clientcmd.NewNonInteractiveClientConfig(
		*kubeconfig, clusterID, &clientcmd.ConfigOverrides{}, nil).ClientConfig()
	if err != nil {
		return fmt.Errorf("%w: building client config for %q: %v",
			provider.ErrConnectionFailed, clusterID, err)
	}
	restCfg.QPS = DefaultQPSLimit
	restCfg.Burst = DefaultBurstLimit

	dynamicClient, discoveryClient, err := p.buildClients(restCfg)
	if err != nil {
		p.metrics.RecordOperation(ctx, "connect", statusError, time.Since(start))
		return fmt.Errorf("%w: %v", provider.ErrConnectionFailed, err)
	}

	// Probe the API server so IsConnected reflects reality, not intent.
	versionInfo, err := discoveryClient.ServerVersion()
	if err != nil {
		p.metrics.RecordOperation(ctx, "connect", statusError, time.Since(start))
		return fmt.Errorf("%w: %q is unreachable: %v",
			provider.ErrConnectionFailed, clusterID, err)
	}

	cluster := clusterFromContext(kubeconfig, clusterID, kctx)
	cluster.Status = provider.ClusterConnected
	cluster.Version = versionInfo.GitVersion

	// The session outlives the Connect call; watches end when the session
	// context is cancelled on Disconnect.
	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		cluster:   cluster,
		dynamic:   dynamicClient,
		discovery: discoveryClient,
		ctx:       sessCtx,
		cancel:    cancel,
	}

	p.mu.Lock()
	old := p.sess
	p.sess = sess
	p.mu.Unlock()

	if old != nil {
		old.cancel()
	}

	p.metrics.RecordOperation(ctx, "connect", statusSuccess, time.Since(start))
	p.logger.Info("connected to cluster",
		logging.Cluster(clusterID),
		logging.Host(cluster.Server),
		"version", cluster.Version)
	return nil
}

// Disconnect releases the active session. Open watch streams end cleanly.
// Safe to call when already disconnected.
func (p *Provider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	sess := p.sess
	p.sess = nil
	p.mu.Unlock()

	if sess == nil {
		return nil
	}

	sess.cancel()
	p.logger.Info("disconnected from cluster", logging.Cluster(sess.cluster.ID))
	return nil
}

// IsConnected reports whether an active session exists.
func (p *Provider) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sess != nil
}

// ListClusters enumerates the kubeconfig contexts as clusters. Allowed
// pre-connection.
func (p *Provider) ListClusters(ctx context.Context) ([]provider.Cluster, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized {
		return nil, provider.ErrNotInitialized
	}

	clusters := make([]provider.Cluster, 0, len(p.kubeconfig.Contexts))
	for name, kctx := range p.kubeconfig.Contexts {
		cluster := clusterFromContext(p.kubeconfig, name, kctx)
		if p.sess != nil && p.sess.cluster.ID == name {
			cluster = p.sess.cluster
		}
		clusters = append(clusters, cluster)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters, nil
}

// GetCluster returns the cluster with the given ID, or nil when unknown.
func (p *Provider) GetCluster(ctx context.Context, id string) (*provider.Cluster, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized {
		return nil, provider.ErrNotInitialized
	}

	if p.sess != nil && p.sess.cluster.ID == id {
		cluster := p.sess.cluster
		return &cluster, nil
	}

	kctx, ok := p.kubeconfig.Contexts[id]
	if !ok {
		return nil, nil
	}
	cluster := clusterFromContext(p.kubeconfig, id, kctx)
	return &cluster, nil
}

// CurrentCluster returns the connected cluster, or nil when not connected.
func (p *Provider) CurrentCluster(ctx context.Context) (*provider.Cluster, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.sess == nil {
		return nil, nil
	}
	cluster := p.sess.cluster
	return &cluster, nil
}

// session returns the active session or ErrNotConnected.
func (p *Provider) session() (*session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.sess == nil {
		return nil, provider.ErrNotConnected
	}
	return p.sess, nil
}

// clusterFromContext builds a cluster snapshot from a kubeconfig context.
func clusterFromContext(kubeconfig *clientcmdapi.Config, name string, kctx *clientcmdapi.Context) provider.Cluster {
	cluster := provider.Cluster{
		ID:        name,
		Name:      name,
		Provider:  provider.TypeKubernetes,
		Status:    provider.ClusterDisconnected,
		Context:   name,
		Namespace: kctx.Namespace,
		Metadata: map[string]string{
			"user":    kctx.AuthInfo,
			"cluster": kctx.Cluster,
		},
	}
	if c, ok := kubeconfig.Clusters[kctx.Cluster]; ok {
		cluster.Server = c.Server
	}
	return cluster
}
