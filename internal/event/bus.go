// Package event implements the per-client publish/subscribe bus. Dispatch is
// synchronous on the calling goroutine; each client owns its own Bus instance.
package event

import (
	"sync"
)

// Listener receives the arguments passed to Emit.
type Listener func(args ...any)

// Handle identifies one registration so it can be removed again. Duplicate
// registrations of the same function are allowed and yield distinct handles.
type Handle struct {
	event string
	fn    Listener
}

// Bus maps event names to ordered listener lists.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]*Handle
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]*Handle)}
}

// On appends fn to the listener list for event and returns its handle.
func (b *Bus) On(event string, fn Listener) *Handle {
	h := &Handle{event: event, fn: fn}
	b.mu.Lock()
	b.listeners[event] = append(b.listeners[event], h)
	b.mu.Unlock()
	return h
}

// Off removes the registration identified by h. Unknown handles are no-ops.
func (b *Bus) Off(h *Handle) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.listeners[h.event]
	for i, reg := range list {
		if reg == h {
			b.listeners[h.event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit invokes a snapshot of the listener list in registration order,
// synchronously, on the calling goroutine. The snapshot isolates the dispatch
// loop from listeners that register or remove listeners mid-emit.
func (b *Bus) Emit(event string, args ...any) {
	b.mu.Lock()
	list := b.listeners[event]
	snapshot := make([]*Handle, len(list))
	copy(snapshot, list)
	b.mu.Unlock()

	for _, h := range snapshot {
		h.fn(args...)
	}
}
