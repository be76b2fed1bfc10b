package events

import "sync"

// Listener consumes lifecycle events.
//
// HandleEvent is called synchronously from the emitting operation, so
// implementations should be fast or hand off to their own goroutine.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(e Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) { f(e) }

// Bus fans events out to any number of listeners, in subscription order,
// synchronously.
//
// Thread Safety:
//   - Subscribe and Publish are safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus returns an empty Bus. A Bus with no listeners discards events.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener. Nil listeners are ignored.
func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Publish delivers e to every registered listener, in subscription order.
// It returns after all listeners have run.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()

	for _, l := range listeners {
		l.HandleEvent(e)
	}
}

// HandleEvent makes Bus itself a Listener, so buses can be chained.
func (b *Bus) HandleEvent(e Event) { b.Publish(e) }
