package kubernetes

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/cloudpilot-dev/cloudpilot/internal/logging"
	"github.com/cloudpilot-dev/cloudpilot/internal/provider"
)

// WatchResources opens a live event stream for the given resource type,
// optionally scoped to a namespace (empty means all namespaces). The
// backend watch is established before returning, so setup failures surface
// here. Requires an active session.
//
// The stream ends cleanly when the consumer stops it or the provider
// disconnects, and with an error when the backend transport fails. The
// backend watch is released as soon as consumption ends, including on the
// error path.
func (p *Provider) WatchResources(ctx context.Context, rt provider.ResourceType, namespace string) (*provider.ResourceWatch, error) {
	sess, err := p.session()
	if err != nil {
		return nil, err
	}
	m, err := mappingFor(rt)
	if err != nil {
		return nil, err
	}

	backendWatch, err := resourceInterface(sess.dynamic, m, namespace).Watch(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", rt, err)
	}

	w := provider.NewResourceWatch(rt, namespace)
	p.logger.Debug("watch started",
		logging.WatchID(w.ID()),
		logging.ResourceType(string(rt)),
		logging.Namespace(namespace))

	go p.pumpEvents(sess, backendWatch, w)
	return w, nil
}

// pumpEvents forwards backend watch events onto the stream until the
// consumer stops it, the session ends, or the transport fails. The deferred
// Stop releases the backend subscription on every exit path.
func (p *Provider) pumpEvents(sess *session, backendWatch watch.Interface, w *provider.ResourceWatch) {
	defer backendWatch.Stop()

	for {
		select {
		case <-w.Done():
			w.Close(nil)
			return

		case <-sess.ctx.Done():
			// Provider disconnected; the stream ends cleanly.
			w.Close(nil)
			p.logger.Debug("watch ended on disconnect", logging.WatchID(w.ID()))
			return

		case ev, ok := <-backendWatch.ResultChan():
			if !ok {
				// Distinguish a disconnect-driven close from a transport
				// failure while the session is still live.
				select {
				case <-sess.ctx.Done():
					w.Close(nil)
				default:
					w.Close(fmt.Errorf("%w: %s stream for %q",
						provider.ErrWatchClosed, w.ResourceType(), w.Namespace()))
				}
				return
			}

			switch ev.Type {
			case watch.Error:
				w.Close(fmt.Errorf("%w: %v", provider.ErrWatchClosed,
					apierrors.FromObject(ev.Object)))
				return
			case watch.Bookmark:
				continue
			}

			obj, ok := ev.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}
			// Enforce the namespace scope client-side; the stream must
			// never emit events outside it.
			if w.Namespace() != "" && obj.GetNamespace() != w.Namespace() {
				continue
			}

			eventType, ok := toEventType(ev.Type)
			if !ok {
				continue
			}

			resourceEvent := provider.ResourceEvent{
				Type:     eventType,
				Resource: toResource(w.ResourceType(), obj),
			}
			// Publishing against the session context means a send blocked on
			// a full buffer still ends on disconnect instead of lingering.
			if !w.Publish(sess.ctx, resourceEvent) {
				w.Close(nil)
				return
			}
			p.metrics.RecordWatchEvent(sess.ctx, w.ResourceType(), eventType)
		}
	}
}

// toEventType maps client-go watch event types onto the stream's tagged
// variants. Anything else (bookmarks, errors) is handled before this point.
func toEventType(t watch.EventType) (provider.EventType, bool) {
	switch t {
	case watch.Added:
		return provider.EventAdded, true
	case watch.Modified:
		return provider.EventModified, true
	case watch.Deleted:
		return provider.EventDeleted, true
	default:
		return "", false
	}
}
