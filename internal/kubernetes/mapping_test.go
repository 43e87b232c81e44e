package kubernetes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

func TestMappingCoversAllResourceTypes(t *testing.T) {
	for _, rt := range provider.KnownResourceTypes() {
		m, err := mappingFor(rt)
		require.NoError(t, err, "resource type %q has no mapping", rt)
		assert.NotEmpty(t, m.gvr.Resource)
	}
}

func TestMappingFor_Unknown(t *testing.T) {
	_, err := mappingFor(provider.ResourceType("replicaset"))
	assert.ErrorIs(t, err, provider.ErrUnknownResourceType)
}

func TestMappingScopes(t *testing.T) {
	ns, err := mappingFor(provider.ResourceNamespace)
	require.NoError(t, err)
	assert.False(t, ns.namespaced)

	pod, err := mappingFor(provider.ResourcePod)
	require.NoError(t, err)
	assert.True(t, pod.namespaced)
}

func TestCapabilitiesFor(t *testing.T) {
	pod := capabilitiesFor(provider.ResourcePod)
	require.NotNil(t, pod)
	assert.True(t, pod.Logs)
	assert.True(t, pod.Exec)
	assert.True(t, pod.Delete)
	assert.False(t, pod.Scale)

	deploy := capabilitiesFor(provider.ResourceDeployment)
	require.NotNil(t, deploy)
	assert.True(t, deploy.Scale)
	assert.False(t, deploy.Logs)

	// Namespaces advertise no optional operations.
	assert.Nil(t, capabilitiesFor(provider.ResourceNamespace))

	// Callers get a copy, never the shared table entry.
	pod.Logs = false
	fresh := capabilitiesFor(provider.ResourcePod)
	assert.True(t, fresh.Logs)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name string
		rt   provider.ResourceType
		obj  map[string]interface{}
		want provider.ResourceStatus
	}{
		{
			name: "pod running",
			rt:   provider.ResourcePod,
			obj:  map[string]interface{}{"status": map[string]interface{}{"phase": "Running"}},
			want: provider.StatusRunning,
		},
		{
			name: "pod pending",
			rt:   provider.ResourcePod,
			obj:  map[string]interface{}{"status": map[string]interface{}{"phase": "Pending"}},
			want: provider.StatusPending,
		},
		{
			name: "pod failed",
			rt:   provider.ResourcePod,
			obj:  map[string]interface{}{"status": map[string]interface{}{"phase": "Failed"}},
			want: provider.StatusFailed,
		},
		{
			name: "pod succeeded",
			rt:   provider.ResourcePod,
			obj:  map[string]interface{}{"status": map[string]interface{}{"phase": "Succeeded"}},
			want: provider.StatusSucceeded,
		},
		{
			name: "pod without phase",
			rt:   provider.ResourcePod,
			obj:  map[string]interface{}{},
			want: provider.StatusUnknown,
		},
		{
			name: "terminating wins over phase",
			rt:   provider.ResourcePod,
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{"deletionTimestamp": "2026-01-02T15:04:05Z"},
				"status":   map[string]interface{}{"phase": "Running"},
			},
			want: provider.StatusTerminating,
		},
		{
			name: "deployment all replicas ready",
			rt:   provider.ResourceDeployment,
			obj: map[string]interface{}{
				"spec":   map[string]interface{}{"replicas": int64(3)},
				"status": map[string]interface{}{"readyReplicas": int64(3)},
			},
			want: provider.StatusRunning,
		},
		{
			name: "deployment rolling out",
			rt:   provider.ResourceDeployment,
			obj: map[string]interface{}{
				"spec":   map[string]interface{}{"replicas": int64(3)},
				"status": map[string]interface{}{"readyReplicas": int64(1)},
			},
			want: provider.StatusPending,
		},
		{
			name: "deployment default replicas",
			rt:   provider.ResourceDeployment,
			obj: map[string]interface{}{
				"status": map[string]interface{}{"readyReplicas": int64(1)},
			},
			want: provider.StatusRunning,
		},
		{
			name: "daemonset not ready",
			rt:   provider.ResourceDaemonSet,
			obj: map[string]interface{}{
				"status": map[string]interface{}{
					"desiredNumberScheduled": int64(2),
					"numberReady":            int64(1),
				},
			},
			want: provider.StatusPending,
		},
		{
			name: "job complete",
			rt:   provider.ResourceJob,
			obj: map[string]interface{}{
				"status": map[string]interface{}{
					"conditions": []interface{}{
						map[string]interface{}{"type": "Complete", "status": "True"},
					},
				},
			},
			want: provider.StatusSucceeded,
		},
		{
			name: "job failed",
			rt:   provider.ResourceJob,
			obj: map[string]interface{}{
				"status": map[string]interface{}{
					"conditions": []interface{}{
						map[string]interface{}{"type": "Failed", "status": "True"},
					},
				},
			},
			want: provider.StatusFailed,
		},
		{
			name: "job active",
			rt:   provider.ResourceJob,
			obj: map[string]interface{}{
				"status": map[string]interface{}{"active": int64(1)},
			},
			want: provider.StatusRunning,
		},
		{
			name: "namespace terminating",
			rt:   provider.ResourceNamespace,
			obj: map[string]interface{}{
				"status": map[string]interface{}{"phase": "Terminating"},
			},
			want: provider.StatusTerminating,
		},
		{
			name: "service always running",
			rt:   provider.ResourceService,
			obj:  map[string]interface{}{},
			want: provider.StatusRunning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := &unstructured.Unstructured{Object: tt.obj}
			assert.Equal(t, tt.want, deriveStatus(tt.rt, obj))
		})
	}
}
