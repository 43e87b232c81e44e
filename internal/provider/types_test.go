package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{name: "kubernetes", input: "kubernetes", want: TypeKubernetes},
		{name: "gcp", input: "gcp", want: TypeGCP},
		{name: "aws", input: "aws", want: TypeAWS},
		{name: "azure", input: "azure", want: TypeAzure},
		{name: "digital ocean", input: "digital-ocean", want: TypeDigitalOcean},
		{name: "case insensitive", input: "Kubernetes", want: TypeKubernetes},
		{name: "unknown", input: "openstack", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownProviderType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKnownTypes(t *testing.T) {
	types := KnownTypes()
	require.Len(t, types, 5)

	// The string values are collaborator-facing; pin them so a rename of a
	// constant cannot silently change the wire form.
	assert.Equal(t,
		[]Type{"kubernetes", "gcp", "aws", "azure", "digital-ocean"},
		types)

	// Every known type must round-trip through ParseType.
	for _, typ := range types {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
}

func TestParseResourceType(t *testing.T) {
	tests := []struct {
		input   string
		want    ResourceType
		wantErr bool
	}{
		{input: "pod", want: ResourcePod},
		{input: "pods", want: ResourcePod},
		{input: "po", want: ResourcePod},
		{input: "service", want: ResourceService},
		{input: "svc", want: ResourceService},
		{input: "deployment", want: ResourceDeployment},
		{input: "deploy", want: ResourceDeployment},
		{input: "statefulset", want: ResourceStatefulSet},
		{input: "sts", want: ResourceStatefulSet},
		{input: "daemonset", want: ResourceDaemonSet},
		{input: "ds", want: ResourceDaemonSet},
		{input: "job", want: ResourceJob},
		{input: "cronjob", want: ResourceCronJob},
		{input: "cj", want: ResourceCronJob},
		{input: "configmap", want: ResourceConfigMap},
		{input: "cm", want: ResourceConfigMap},
		{input: "secret", want: ResourceSecret},
		{input: "ingress", want: ResourceIngress},
		{input: "ing", want: ResourceIngress},
		{input: "namespace", want: ResourceNamespace},
		{input: "ns", want: ResourceNamespace},
		{input: "PODS", want: ResourcePod},
		{input: "replicaset", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResourceType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownResourceType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKnownResourceTypes(t *testing.T) {
	types := KnownResourceTypes()
	require.Len(t, types, 11)

	for _, rt := range types {
		got, err := ParseResourceType(string(rt))
		require.NoError(t, err)
		assert.Equal(t, rt, got)
	}
}
