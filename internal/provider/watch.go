package provider

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// watchBufferSize is the event channel capacity of a ResourceWatch. A small
// buffer absorbs bursts from the backend without letting a slow consumer
// accumulate unbounded state.
const watchBufferSize = 64

// ResourceWatch is a live, cancelable stream of ResourceEvent values for one
// resource type and namespace scope.
//
// Consumers range over Events() until the channel closes, then inspect
// Err(): nil means the stream ended cleanly (the provider disconnected or
// the consumer stopped it); non-nil means the underlying transport failed.
// Stopping the watch, either via Stop or by cancelling the context passed
// to WatchResources, releases the backend subscription immediately without
// waiting for another event to arrive.
//
// Publish and Close are the producer side of the stream. They are intended
// for Provider implementations only and must be called from a single
// producing goroutine.
type ResourceWatch struct {
	id           string
	resourceType ResourceType
	namespace    string

	events chan ResourceEvent
	stopCh chan struct{}

	stopOnce  sync.Once
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewResourceWatch creates a stream scoped to the given resource type and
// namespace (empty means all namespaces).
func NewResourceWatch(rt ResourceType, namespace string) *ResourceWatch {
	return &ResourceWatch{
		id:           uuid.NewString(),
		resourceType: rt,
		namespace:    namespace,
		events:       make(chan ResourceEvent, watchBufferSize),
		stopCh:       make(chan struct{}),
	}
}

// ID returns the unique identifier of this stream, used for log correlation.
func (w *ResourceWatch) ID() string { return w.id }

// ResourceType returns the resource type this stream is scoped to.
func (w *ResourceWatch) ResourceType() ResourceType { return w.resourceType }

// Namespace returns the namespace scope; empty means all namespaces.
func (w *ResourceWatch) Namespace() string { return w.namespace }

// Events returns the channel change notifications are delivered on. The
// channel closes when the stream ends; check Err() afterwards.
func (w *ResourceWatch) Events() <-chan ResourceEvent { return w.events }

// Stop cancels the stream from the consumer side. The backend subscription
// is released immediately; Events() closes shortly after. Safe to call more
// than once.
func (w *ResourceWatch) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Done returns a channel that is closed once the consumer has stopped the
// stream. Producers select on it to release backend resources promptly.
func (w *ResourceWatch) Done() <-chan struct{} { return w.stopCh }

// Err returns the terminal error of the stream. It is meaningful only after
// Events() has closed; nil indicates a clean end.
func (w *ResourceWatch) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Publish delivers an event to the consumer. It reports false, dropping the
// event, once the consumer has stopped the stream or ctx ends; the ctx guard
// keeps a producer blocked on a full buffer from outliving its session.
// Producer side only.
func (w *ResourceWatch) Publish(ctx context.Context, ev ResourceEvent) bool {
	select {
	case <-w.stopCh:
		return false
	default:
	}
	select {
	case w.events <- ev:
		return true
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close ends the stream, recording err as its terminal error (nil for a
// clean end). Producer side only; safe to call more than once.
func (w *ResourceWatch) Close(err error) {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
		close(w.events)
	})
}
