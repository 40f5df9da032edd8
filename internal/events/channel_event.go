package events

import (
	"sync"
)

// ChannelEvent fans a value out to registered channels. Sends never block:
// a listener whose channel is full misses that value. It suits consumers
// with their own select loop (the tview dashboard draining engine
// snapshots), where only the freshest value matters.
type ChannelEvent[T any] struct {
	mu       sync.RWMutex
	channels map[uint64]chan<- T
	nextID   uint64
	replay   bool
	last     *T
}

// NewChannelEvent creates a ChannelEvent. When replayLast is true the most
// recent value is offered to every new listener channel immediately.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels: make(map[uint64]chan<- T),
		replay:   replayLast,
	}
}

// Listen registers ch and returns a function that removes the registration.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("events: nil channel")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	var replayValue *T
	if e.replay && e.last != nil {
		v := *e.last
		replayValue = &v
	}
	e.mu.Unlock()

	if replayValue != nil {
		select {
		case ch <- *replayValue:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify offers value to every registered channel without blocking.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replay {
		v := value
		e.last = &v
	}
	snapshot := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		snapshot = append(snapshot, ch)
	}
	e.mu.Unlock()

	for _, ch := range snapshot {
		select {
		case ch <- value:
		default:
		}
	}
}

// ListenerCount reports the number of registered listener channels.
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
