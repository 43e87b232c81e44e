package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// fakeProvider is a minimal provider.Provider for registry tests.
type fakeProvider struct {
	typ         provider.Type
	initErr     error
	initialized atomic.Bool
	disconnects atomic.Int32
}

func (f *fakeProvider) Type() provider.Type { return f.typ }

func (f *fakeProvider) Initialize(ctx context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	if !f.initialized.CompareAndSwap(false, true) {
		return errors.New("initialized twice")
	}
	return nil
}

func (f *fakeProvider) Connect(ctx context.Context, clusterID string) error { return nil }
func (f *fakeProvider) Disconnect(ctx context.Context) error {
	f.disconnects.Add(1)
	return nil
}
func (f *fakeProvider) IsConnected() bool { return false }
func (f *fakeProvider) ListClusters(ctx context.Context) ([]provider.Cluster, error) {
	return nil, nil
}
func (f *fakeProvider) GetCluster(ctx context.Context, id string) (*provider.Cluster, error) {
	return nil, nil
}
func (f *fakeProvider) CurrentCluster(ctx context.Context) (*provider.Cluster, error) {
	return nil, nil
}
func (f *fakeProvider) ListResources(ctx context.Context, rt provider.ResourceType, namespace string) ([]provider.Resource, error) {
	return nil, nil
}
func (f *fakeProvider) GetResource(ctx context.Context, rt provider.ResourceType, id, namespace string) (*provider.Resource, error) {
	return nil, nil
}
func (f *fakeProvider) WatchResources(ctx context.Context, rt provider.ResourceType, namespace string) (*provider.ResourceWatch, error) {
	return nil, provider.ErrNotConnected
}
func (f *fakeProvider) ListNamespaces(ctx context.Context) ([]string, error) { return nil, nil }

func TestGetProvider_CachesInstance(t *testing.T) {
	var constructed atomic.Int32
	reg := New(WithFactory(provider.TypeKubernetes, func(ctx context.Context) (provider.Provider, error) {
		constructed.Add(1)
		return &fakeProvider{typ: provider.TypeKubernetes}, nil
	}))

	ctx := context.Background()
	first, err := reg.GetProvider(ctx, provider.TypeKubernetes)
	require.NoError(t, err)

	second, err := reg.GetProvider(ctx, provider.TypeKubernetes)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), constructed.Load())
	assert.Equal(t, 1, reg.Size())
}

func TestGetProvider_UnknownType(t *testing.T) {
	reg := New()

	_, err := reg.GetProvider(context.Background(), provider.Type("openstack"))
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownProviderType)
	assert.Equal(t, 0, reg.Size())
}

func TestGetProvider_NotImplementedNeverCached(t *testing.T) {
	reg := New()
	ctx := context.Background()

	for _, typ := range []provider.Type{
		provider.TypeGCP, provider.TypeAWS, provider.TypeAzure, provider.TypeDigitalOcean,
	} {
		_, err := reg.GetProvider(ctx, typ)
		require.Error(t, err)
		assert.ErrorIs(t, err, provider.ErrNotImplemented)

		// A second call fails identically; nothing was cached.
		_, again := reg.GetProvider(ctx, typ)
		assert.ErrorIs(t, again, provider.ErrNotImplemented)
	}
	assert.Equal(t, 0, reg.Size())
}

func TestGetProvider_FailedInitNotCached(t *testing.T) {
	initErr := errors.New("no credentials")
	calls := 0
	reg := New(WithFactory(provider.TypeGCP, func(ctx context.Context) (provider.Provider, error) {
		calls++
		if calls == 1 {
			return &fakeProvider{typ: provider.TypeGCP, initErr: initErr}, nil
		}
		return &fakeProvider{typ: provider.TypeGCP}, nil
	}))

	ctx := context.Background()
	_, err := reg.GetProvider(ctx, provider.TypeGCP)
	require.Error(t, err)
	assert.ErrorIs(t, err, initErr)
	assert.Equal(t, 0, reg.Size())

	// The failure was not cached; a retry constructs a fresh instance.
	p, err := reg.GetProvider(ctx, provider.TypeGCP)
	require.NoError(t, err)
	assert.Equal(t, provider.TypeGCP, p.Type())
	assert.Equal(t, 2, calls)
}

func TestGetProvider_ConcurrentInitOnce(t *testing.T) {
	var constructed atomic.Int32
	reg := New(WithFactory(provider.TypeKubernetes, func(ctx context.Context) (provider.Provider, error) {
		constructed.Add(1)
		return &fakeProvider{typ: provider.TypeKubernetes}, nil
	}))

	const goroutines = 50
	results := make([]provider.Provider, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := reg.GetProvider(context.Background(), provider.TypeKubernetes)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), constructed.Load(), "factory must run exactly once")
	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}

func TestRemoveProvider_DisconnectsAndEvicts(t *testing.T) {
	reg := New(WithFactory(provider.TypeKubernetes, func(ctx context.Context) (provider.Provider, error) {
		return &fakeProvider{typ: provider.TypeKubernetes}, nil
	}))

	ctx := context.Background()
	first, err := reg.GetProvider(ctx, provider.TypeKubernetes)
	require.NoError(t, err)

	reg.RemoveProvider(ctx, provider.TypeKubernetes)
	assert.Equal(t, 0, reg.Size())
	assert.Equal(t, int32(1), first.(*fakeProvider).disconnects.Load())

	// Removing an absent provider is a no-op.
	reg.RemoveProvider(ctx, provider.TypeKubernetes)

	second, err := reg.GetProvider(ctx, provider.TypeKubernetes)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestClearAll(t *testing.T) {
	k8s := &fakeProvider{typ: provider.TypeKubernetes}
	gcp := &fakeProvider{typ: provider.TypeGCP}
	reg := New(
		WithFactory(provider.TypeKubernetes, func(ctx context.Context) (provider.Provider, error) {
			return k8s, nil
		}),
		WithFactory(provider.TypeGCP, func(ctx context.Context) (provider.Provider, error) {
			return gcp, nil
		}),
	)

	ctx := context.Background()
	_, err := reg.GetProvider(ctx, provider.TypeKubernetes)
	require.NoError(t, err)
	_, err = reg.GetProvider(ctx, provider.TypeGCP)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Size())

	reg.ClearAll(ctx)
	assert.Equal(t, 0, reg.Size())
	assert.Equal(t, int32(1), k8s.disconnects.Load())
	assert.Equal(t, int32(1), gcp.disconnects.Load())
}

func TestAvailableProviders(t *testing.T) {
	reg := New(WithFactory(provider.TypeAWS, func(ctx context.Context) (provider.Provider, error) {
		return &fakeProvider{typ: provider.TypeAWS}, nil
	}))

	types := reg.AvailableProviders()
	assert.Equal(t, []provider.Type{provider.TypeAWS, provider.TypeKubernetes}, types)
}
