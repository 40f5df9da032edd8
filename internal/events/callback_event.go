// Package events provides small typed pub/sub primitives. They are the only
// coupling channel between the voice dispatcher, the music ducker and the UI:
// components never reach into each other's state, they subscribe.
package events

import (
	"sync"
)

// CallbackEvent fans a value out to registered callback functions.
// Callbacks are invoked synchronously on the notifying goroutine, outside the
// event's lock, so a listener may call back into the event (or its publisher)
// without deadlocking.
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	replay    bool
	last      *T
}

// NewCallbackEvent creates a CallbackEvent. When replayLast is true the most
// recent value is delivered immediately to every new listener, so late
// subscribers (e.g. a UI attached mid-session) see current state.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners: make(map[uint64]func(T)),
		replay:    replayLast,
	}
}

// Listen registers fn and returns a function that removes the registration.
func (e *CallbackEvent[T]) Listen(fn func(T)) func() {
	if fn == nil {
		panic("events: nil callback")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	var replayValue *T
	if e.replay && e.last != nil {
		v := *e.last
		replayValue = &v
	}
	e.mu.Unlock()

	if replayValue != nil {
		fn(*replayValue)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify delivers value to every registered listener.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replay {
		v := value
		e.last = &v
	}
	snapshot := make([]func(T), 0, len(e.listeners))
	for _, fn := range e.listeners {
		snapshot = append(snapshot, fn)
	}
	e.mu.Unlock()

	for _, fn := range snapshot {
		fn(value)
	}
}

// ListenerCount reports the number of registered listeners.
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
