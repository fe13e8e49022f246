package extension

import (
	"errors"
	"time"
)

// AsyncEventBroker delivers notifications about finished work, such as the ChangeReport of a
// sanitize call.  Every listener runs on its own goroutine and nothing is returned, so a slow
// listener never delays the sanitizer.
type AsyncEventBroker[E any] struct {
	listeners listeners[func(E)]
}

// Emit starts each registered listener with its own copy of the event.  A nil broker has no
// listeners.
func (eb *AsyncEventBroker[E]) Emit(event *E) {
	if eb == nil {
		return
	}
	for _, l := range eb.listeners.snapshot() {
		go l(*event)
	}
}

// HasListeners reports whether any listener is registered.
func (eb *AsyncEventBroker[E]) HasListeners() bool {
	return eb != nil && len(eb.listeners.snapshot()) > 0
}

// ListenerNames returns the names of registered listeners, in the order they were added.
func (eb *AsyncEventBroker[E]) ListenerNames() []string {
	return eb.listeners.list()
}

// AddListener registers the named listener, replacing one with the same name.
func (eb *AsyncEventBroker[E]) AddListener(name string, listener func(E)) {
	eb.listeners.add(name, listener)
}

// RemoveListener unregisters the named listener, if present.
func (eb *AsyncEventBroker[E]) RemoveListener(name string) {
	eb.listeners.remove(name)
}

// AsyncTestListener registers a listener buffering up to capacity events, and returns a func
// that waits up to two seconds for the next one.  The listener unregisters itself once capacity
// events have been taken.
func (eb *AsyncEventBroker[E]) AsyncTestListener(name string, capacity int) func() (*E, error) {
	events := make(chan E, capacity)
	eb.AddListener(name, func(ev E) {
		events <- ev
	})

	taken := 0
	return func() (*E, error) {
		taken++
		if taken >= capacity {
			defer eb.RemoveListener(name)
		}

		select {
		case ev := <-events:
			return &ev, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("timeout waiting for event")
		}
	}
}
