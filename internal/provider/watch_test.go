package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceWatch_PublishAndConsume(t *testing.T) {
	w := NewResourceWatch(ResourcePod, "default")
	assert.NotEmpty(t, w.ID())
	assert.Equal(t, ResourcePod, w.ResourceType())
	assert.Equal(t, "default", w.Namespace())

	ev := ResourceEvent{
		Type:     EventAdded,
		Resource: Resource{Name: "web-0", Namespace: "default", Type: ResourcePod},
	}
	require.True(t, w.Publish(context.Background(), ev))

	got := <-w.Events()
	assert.Equal(t, ev, got)
}

func TestResourceWatch_StopRejectsPublish(t *testing.T) {
	w := NewResourceWatch(ResourcePod, "")

	w.Stop()
	// Stop is idempotent.
	w.Stop()

	select {
	case <-w.Done():
	default:
		t.Fatal("Done() should be closed after Stop()")
	}

	assert.False(t, w.Publish(context.Background(), ResourceEvent{Type: EventAdded}))
}

func TestResourceWatch_CloseCleanEnd(t *testing.T) {
	w := NewResourceWatch(ResourceDeployment, "")

	require.True(t, w.Publish(context.Background(), ResourceEvent{Type: EventModified}))
	w.Close(nil)

	// The buffered event is still delivered before the close is observed.
	ev, ok := <-w.Events()
	require.True(t, ok)
	assert.Equal(t, EventModified, ev.Type)

	_, ok = <-w.Events()
	assert.False(t, ok)
	assert.NoError(t, w.Err())
}

func TestResourceWatch_CloseWithError(t *testing.T) {
	w := NewResourceWatch(ResourcePod, "default")

	terminal := errors.New("connection reset")
	w.Close(terminal)
	// Only the first Close records the terminal error.
	w.Close(errors.New("second close"))

	_, ok := <-w.Events()
	assert.False(t, ok)
	assert.Equal(t, terminal, w.Err())
}

func TestResourceWatch_PublishUnblocksOnStop(t *testing.T) {
	w := NewResourceWatch(ResourcePod, "")

	// Fill the buffer so the next Publish blocks.
	for w.Publish(context.Background(), ResourceEvent{Type: EventAdded}) {
		if len(w.events) == cap(w.events) {
			break
		}
	}

	published := make(chan bool, 1)
	go func() {
		published <- w.Publish(context.Background(), ResourceEvent{Type: EventAdded})
	}()

	w.Stop()

	select {
	case ok := <-published:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Publish did not unblock after Stop")
	}
}

func TestResourceWatch_PublishUnblocksOnContextCancel(t *testing.T) {
	w := NewResourceWatch(ResourcePod, "")

	for w.Publish(context.Background(), ResourceEvent{Type: EventAdded}) {
		if len(w.events) == cap(w.events) {
			break
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	published := make(chan bool, 1)
	go func() {
		published <- w.Publish(ctx, ResourceEvent{Type: EventAdded})
	}()

	cancel()

	select {
	case ok := <-published:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Publish did not unblock after context cancellation")
	}
}
