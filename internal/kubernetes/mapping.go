package kubernetes

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// resourceMapping binds a resource type from the closed enumeration to its
// Kubernetes GroupVersionResource, scope, and the optional operations
// resources of that type support.
type resourceMapping struct {
	gvr          schema.GroupVersionResource
	namespaced   bool
	capabilities *provider.Capabilities
}

// resourceMappings is the closed dispatch table for the resource type
// enumeration. Every provider.ResourceType constant has exactly one entry;
// adding a resource type means adding a row here.
var resourceMappings = map[provider.ResourceType]resourceMapping{
	provider.ResourcePod: {
		gvr:          schema.GroupVersionResource{Group: "", Version: "v1", Resource: "pods"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Logs: true, Exec: true, Delete: true},
	},
	provider.ResourceService: {
		gvr:          schema.GroupVersionResource{Group: "", Version: "v1", Resource: "services"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	provider.ResourceDeployment: {
		gvr:          schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true, Scale: true},
	},
	provider.ResourceStatefulSet: {
		gvr:          schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "statefulsets"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true, Scale: true},
	},
	provider.ResourceDaemonSet: {
		gvr:          schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "daemonsets"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	provider.ResourceJob: {
		gvr:          schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "jobs"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Logs: true, Delete: true},
	},
	provider.ResourceCronJob: {
		gvr:          schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "cronjobs"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	provider.ResourceConfigMap: {
		gvr:          schema.GroupVersionResource{Group: "", Version: "v1", Resource: "configmaps"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	provider.ResourceSecret: {
		gvr:          schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	provider.ResourceIngress: {
		gvr:          schema.GroupVersionResource{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"},
		namespaced:   true,
		capabilities: &provider.Capabilities{Delete: true},
	},
	// Namespaces are managed by the cluster; none of the optional
	// operations apply, so no capability set is advertised.
	provider.ResourceNamespace: {
		gvr:        schema.GroupVersionResource{Group: "", Version: "v1", Resource: "namespaces"},
		namespaced: false,
	},
}

// mappingFor resolves a resource type to its Kubernetes mapping.
func mappingFor(rt provider.ResourceType) (resourceMapping, error) {
	m, ok := resourceMappings[rt]
	if !ok {
		return resourceMapping{}, fmt.Errorf("%w: %q", provider.ErrUnknownResourceType, rt)
	}
	return m, nil
}

// capabilitiesFor returns a copy of the capability set for a resource type,
// or nil when the type advertises none. Copying keeps callers from mutating
// the shared dispatch table.
func capabilitiesFor(rt provider.ResourceType) *provider.Capabilities {
	m, ok := resourceMappings[rt]
	if !ok || m.capabilities == nil {
		return nil
	}
	caps := *m.capabilities
	return &caps
}

// deriveStatus maps backend-observed object state onto the resource status
// enumeration. The result is the last known observation, not real-time
// truth.
func deriveStatus(rt provider.ResourceType, obj *unstructured.Unstructured) provider.ResourceStatus {
	if obj.GetDeletionTimestamp() != nil {
		return provider.StatusTerminating
	}

	switch rt {
	case provider.ResourcePod:
		phase, _, _ := unstructured.NestedString(obj.Object, "status", "phase")
		switch phase {
		case "Running":
			return provider.StatusRunning
		case "Pending":
			return provider.StatusPending
		case "Failed":
			return provider.StatusFailed
		case "Succeeded":
			return provider.StatusSucceeded
		default:
			return provider.StatusUnknown
		}

	case provider.ResourceJob:
		conditions, _, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
		for _, c := range conditions {
			cond, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			condType, _ := cond["type"].(string)
			condStatus, _ := cond["status"].(string)
			if condStatus != "True" {
				continue
			}
			switch condType {
			case "Complete":
				return provider.StatusSucceeded
			case "Failed":
				return provider.StatusFailed
			}
		}
		if active, _, _ := unstructured.NestedInt64(obj.Object, "status", "active"); active > 0 {
			return provider.StatusRunning
		}
		return provider.StatusPending

	case provider.ResourceDeployment, provider.ResourceStatefulSet:
		desired, found, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas")
		if !found {
			desired = 1
		}
		ready, _, _ := unstructured.NestedInt64(obj.Object, "status", "readyReplicas")
		if ready >= desired {
			return provider.StatusRunning
		}
		return provider.StatusPending

	case provider.ResourceDaemonSet:
		desired, _, _ := unstructured.NestedInt64(obj.Object, "status", "desiredNumberScheduled")
		ready, _, _ := unstructured.NestedInt64(obj.Object, "status", "numberReady")
		if desired > 0 && ready < desired {
			return provider.StatusPending
		}
		return provider.StatusRunning

	case provider.ResourceNamespace:
		phase, _, _ := unstructured.NestedString(obj.Object, "status", "phase")
		if phase == "Terminating" {
			return provider.StatusTerminating
		}
		return provider.StatusRunning

	default:
		// Services, config maps, secrets, ingresses, and cron jobs have no
		// meaningful lifecycle phase once they exist.
		return provider.StatusRunning
	}
}
