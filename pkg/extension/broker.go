package extension

import (
	"sync"
)

// listeners is a named list of listener funcs in priority order.  The slices are replaced on
// every change, never modified, so a snapshot taken by an emitter stays valid while listeners
// run, even if they add or remove listeners themselves.
type listeners[F any] struct {
	mu    sync.RWMutex
	names []string
	funcs []F
}

func (l *listeners[F]) snapshot() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.funcs
}

func (l *listeners[F]) list() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]string(nil), l.names...)
}

func (l *listeners[F]) add(name string, f F) {
	l.mu.Lock()
	defer l.mu.Unlock()

	names, funcs := l.without(name)
	l.names = append(names, name)
	l.funcs = append(funcs, f)
}

func (l *listeners[F]) remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.names, l.funcs = l.without(name)
}

// without returns new lists holding every listener except name.
func (l *listeners[F]) without(name string) ([]string, []F) {
	names := make([]string, 0, len(l.names)+1)
	funcs := make([]F, 0, len(l.funcs)+1)
	for i, n := range l.names {
		if n != name {
			names = append(names, n)
			funcs = append(funcs, l.funcs[i])
		}
	}
	return names, funcs
}

// EventBroker delivers one kind of sanitizer event to named listeners, synchronously and in
// priority order.  R is the answer a listener may give: a Decision for removals, a new URL for
// FilterURL, a Replacement for NodeFiltered.  The zero value has no listeners and is ready to use.
type EventBroker[E any, R any] struct {
	listeners listeners[func(E) *R]
}

// Emit offers the event to each listener in turn and returns the first non-nil answer, or nil
// when every listener passed.  Listeners receive a copy of the event.  A nil broker has no
// listeners.
func (eb *EventBroker[E, R]) Emit(event *E) *R {
	if eb == nil {
		return nil
	}
	for _, l := range eb.listeners.snapshot() {
		if result := l(*event); result != nil {
			return result
		}
	}
	return nil
}

// HasListeners reports whether any listener is registered, so the sanitizer can skip building
// events nobody will receive.
func (eb *EventBroker[E, R]) HasListeners() bool {
	return eb != nil && len(eb.listeners.snapshot()) > 0
}

// ListenerNames returns the names of registered listeners, in priority order.
func (eb *EventBroker[E, R]) ListenerNames() []string {
	return eb.listeners.list()
}

// AddListener registers the named listener at the lowest priority.  A listener already registered
// under the same name is replaced.
func (eb *EventBroker[E, R]) AddListener(name string, listener func(E) *R) {
	eb.listeners.add(name, listener)
}

// RemoveListener unregisters the named listener, if present.
func (eb *EventBroker[E, R]) RemoveListener(name string) {
	eb.listeners.remove(name)
}
