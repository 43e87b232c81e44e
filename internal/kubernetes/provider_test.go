package kubernetes

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/discovery"
	discoveryfake "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/rest"
	clienttesting "k8s.io/client-go/testing"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// writeKubeconfig writes a kubeconfig with two contexts, dev and prod, and
// dev as the current context. Returns its path.
func writeKubeconfig(t *testing.T) string {
	t.Helper()

	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["dev-cluster"] = &clientcmdapi.Cluster{
		Server:                "https://dev.example.com:6443",
		InsecureSkipTLSVerify: true,
	}
	cfg.Clusters["prod-cluster"] = &clientcmdapi.Cluster{
		Server:                "https://prod.example.com:6443",
		InsecureSkipTLSVerify: true,
	}
	cfg.AuthInfos["dev-user"] = &clientcmdapi.AuthInfo{Token: "dev-token"}
	cfg.AuthInfos["prod-user"] = &clientcmdapi.AuthInfo{Token: "prod-token"}
	cfg.Contexts["dev"] = &clientcmdapi.Context{
		Cluster: "dev-cluster", AuthInfo: "dev-user", Namespace: "default",
	}
	cfg.Contexts["prod"] = &clientcmdapi.Context{
		Cluster: "prod-cluster", AuthInfo: "prod-user",
	}
	cfg.CurrentContext = "dev"

	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, clientcmd.WriteToFile(*cfg, path))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gvrListKinds covers the resource types exercised by tests.
var gvrListKinds = map[schema.GroupVersionResource]string{
	{Version: "v1", Resource: "pods"}:                       "PodList",
	{Version: "v1", Resource: "namespaces"}:                 "NamespaceList",
	{Version: "v1", Resource: "services"}:                   "ServiceList",
	{Group: "apps", Version: "v1", Resource: "deployments"}: "DeploymentList",
	{Group: "batch", Version: "v1", Resource: "jobs"}:       "JobList",
}

// newTestProvider builds an initialized provider whose clients are fakes
// seeded with the given objects. Returns the provider and the dynamic fake
// for installing reactors.
func newTestProvider(t *testing.T, objects ...runtime.Object) (*Provider, *dynamicfake.FakeDynamicClient) {
	t.Helper()

	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
		runtime.NewScheme(), gvrListKinds, objects...)
	discoveryClient := &discoveryfake.FakeDiscovery{
		Fake:               &clienttesting.Fake{},
		FakedServerVersion: &version.Info{GitVersion: "v1.31.2"},
	}

	p := New(Config{
		KubeconfigPath: writeKubeconfig(t),
		Logger:         testLogger(),
	})
	p.buildClients = func(cfg *rest.Config) (dynamic.Interface, discovery.DiscoveryInterface, error) {
		return dynamicClient, discoveryClient, nil
	}

	require.NoError(t, p.Initialize(context.Background()))
	return p, dynamicClient
}

// newPod builds an unstructured pod in the given phase.
func newPod(namespace, name, phase string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"status": map[string]interface{}{
			"phase": phase,
		},
	}}
}

func TestProvider_Type(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, provider.TypeKubernetes, p.Type())
}

func TestProvider_InitializeOnce(t *testing.T) {
	p := New(Config{KubeconfigPath: writeKubeconfig(t), Logger: testLogger()})
	ctx := context.Background()

	require.NoError(t, p.Initialize(ctx))

	err := p.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestProvider_OperationsRequireInitialize(t *testing.T) {
	p := New(Config{KubeconfigPath: writeKubeconfig(t), Logger: testLogger()})
	ctx := context.Background()

	_, err := p.ListClusters(ctx)
	assert.ErrorIs(t, err, provider.ErrNotInitialized)

	_, err = p.GetCluster(ctx, "dev")
	assert.ErrorIs(t, err, provider.ErrNotInitialized)

	err = p.Connect(ctx, "dev")
	assert.ErrorIs(t, err, provider.ErrNotInitialized)
}

func TestProvider_ListClusters(t *testing.T) {
	p, _ := newTestProvider(t)

	clusters, err := p.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	// Sorted by ID.
	assert.Equal(t, "dev", clusters[0].ID)
	assert.Equal(t, "prod", clusters[1].ID)

	assert.Equal(t, provider.ClusterDisconnected, clusters[0].Status)
	assert.Equal(t, "https://dev.example.com:6443", clusters[0].Server)
	assert.Equal(t, "default", clusters[0].Namespace)
	assert.Equal(t, provider.TypeKubernetes, clusters[0].Provider)
}

func TestProvider_GetCluster(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	cluster, err := p.GetCluster(ctx, "prod")
	require.NoError(t, err)
	require.NotNil(t, cluster)
	assert.Equal(t, "prod", cluster.ID)

	// Unknown ID is an empty result, not an error.
	cluster, err = p.GetCluster(ctx, "staging")
	require.NoError(t, err)
	assert.Nil(t, cluster)
}

func TestProvider_ConnectUnknownCluster(t *testing.T) {
	p, _ := newTestProvider(t)

	err := p.Connect(context.Background(), "staging")
	assert.ErrorIs(t, err, provider.ErrClusterNotFound)
	assert.False(t, p.IsConnected())
}

func TestProvider_ConnectAndDisconnect(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	assert.False(t, p.IsConnected())

	current, err := p.CurrentCluster(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	require.NoError(t, p.Connect(ctx, "dev"))
	assert.True(t, p.IsConnected())

	current, err = p.CurrentCluster(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "dev", current.ID)
	assert.Equal(t, provider.ClusterConnected, current.Status)
	assert.Equal(t, "v1.31.2", current.Version)

	// The connected cluster shows up as connected in listings too.
	clusters, err := p.ListClusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, provider.ClusterConnected, clusters[0].Status)

	require.NoError(t, p.Disconnect(ctx))
	assert.False(t, p.IsConnected())

	current, err = p.CurrentCluster(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestProvider_ConnectDefaultsToCurrentContext(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, ""))

	current, err := p.CurrentCluster(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "dev", current.ID)
}

func TestProvider_DisconnectWhenDisconnected(t *testing.T) {
	p, _ := newTestProvider(t)

	// Safe to call without a session.
	assert.NoError(t, p.Disconnect(context.Background()))
}

func TestProvider_SessionScopedOperationsRequireConnect(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.ListResources(ctx, provider.ResourcePod, "")
	assert.ErrorIs(t, err, provider.ErrNotConnected)

	_, err = p.GetResource(ctx, provider.ResourcePod, "web-0", "default")
	assert.ErrorIs(t, err, provider.ErrNotConnected)

	_, err = p.ListNamespaces(ctx)
	assert.ErrorIs(t, err, provider.ErrNotConnected)

	_, err = p.WatchResources(ctx, provider.ResourcePod, "")
	assert.ErrorIs(t, err, provider.ErrNotConnected)
}

func TestProvider_Features(t *testing.T) {
	p, _ := newTestProvider(t)

	features, err := provider.Features(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "pod-logs")
	assert.Contains(t, names, "scale")
}
