package kubernetes

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"

	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// ListResources returns a snapshot of resources of the given type. An empty
// namespace means all namespaces. Requires an active session.
func (p *Provider) ListResources(ctx context.Context, rt provider.ResourceType, namespace string) ([]provider.Resource, error) {
	sess, err := p.session()
	if err != nil {
		return nil, err
	}
	m, err := mappingFor(rt)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	list, err := resourceInterface(sess.dynamic, m, namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		p.metrics.RecordOperation(ctx, "list", statusError, time.Since(start))
		return nil, fmt.Errorf("failed to list %s: %w", rt, err)
	}
	p.metrics.RecordOperation(ctx, "list", statusSuccess, time.Since(start))

	resources := make([]provider.Resource, 0, len(list.Items))
	for i := range list.Items {
		resources = append(resources, toResource(rt, &list.Items[i]))
	}

	p.logger.Debug("listed resources",
		logging.ResourceType(string(rt)),
		logging.Namespace(namespace),
		"count", len(resources))
	return resources, nil
}

// GetResource returns a single resource snapshot by ID (the object name
// within the namespace), or nil when no such resource exists. Requires an
// active session.
func (p *Provider) GetResource(ctx context.Context, rt provider.ResourceType, id, namespace string) (*provider.Resource, error) {
	sess, err := p.session()
	if err != nil {
		return nil, err
	}
	m, err := mappingFor(rt)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	obj, err := resourceInterface(sess.dynamic, m, namespace).Get(ctx, id, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			p.metrics.RecordOperation(ctx, "get", statusSuccess, time.Since(start))
			return nil, nil
		}
		p.metrics.RecordOperation(ctx, "get", statusError, time.Since(start))
		return nil, fmt.Errorf("failed to get %s %q: %w", rt, id, err)
	}
	p.metrics.RecordOperation(ctx, "get", statusSuccess, time.Since(start))

	resource := toResource(rt, obj)
	return &resource, nil
}

// ListNamespaces returns the names of the cluster's namespaces. Requires an
// active session.
func (p *Provider) ListNamespaces(ctx context.Context) ([]string, error) {
	sess, err := p.session()
	if err != nil {
		return nil, err
	}
	m, err := mappingFor(provider.ResourceNamespace)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	list, err := sess.dynamic.Resource(m.gvr).List(ctx, metav1.ListOptions{})
	if err != nil {
		p.metrics.RecordOperation(ctx, "list-namespaces", statusError, time.Since(start))
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	p.metrics.RecordOperation(ctx, "list-namespaces", statusSuccess, time.Since(start))

	names := make([]string, 0, len(list.Items))
	for i := range list.Items {
		names = append(names, list.Items[i].GetName())
	}
	return names, nil
}

// resourceInterface scopes the dynamic client to a namespace when the
// resource is namespaced and a namespace was requested; otherwise it spans
// the whole cluster.
func resourceInterface(client dynamic.Interface, m resourceMapping, namespace string) dynamic.ResourceInterface {
	if m.namespaced && namespace != "" {
		return client.Resource(m.gvr).Namespace(namespace)
	}
	return client.Resource(m.gvr)
}

// toResource converts an unstructured Kubernetes object into the shared
// resource shape. Cluster-managed identity details land in the metadata bag.
func toResource(rt provider.ResourceType, obj *unstructured.Unstructured) provider.Resource {
	metadata := map[string]string{
		"uid":             string(obj.GetUID()),
		"resourceVersion": obj.GetResourceVersion(),
		"apiVersion":      obj.GetAPIVersion(),
		"kind":            obj.GetKind(),
	}
	if ts := obj.GetCreationTimestamp(); !ts.IsZero() {
		metadata["created"] = ts.UTC().Format(time.RFC3339)
	}

	return provider.Resource{
		ID:           obj.GetName(),
		Name:         obj.GetName(),
		Namespace:    obj.GetNamespace(),
		Type:         rt,
		Status:       deriveStatus(rt, obj),
		Provider:     provider.TypeKubernetes,
		Metadata:     metadata,
		Capabilities: capabilitiesFor(rt),
	}
}
