package protocol

import (
	"github.com/upf-gti/admire-sub000/internal/util"
)

// HandlerFunc mutates client state in response to one inbound message.
type HandlerFunc func(*Message)

// disposition is the routing decision recorded for a message id.
type disposition uint8

const (
	dispHandled  disposition = iota // run the handler, then emit
	dispEmitOnly                    // no side effects, emit as-is
	dispIgnore                      // valid protocol noise, drop silently
)

type entry struct {
	kind disposition
	fn   HandlerFunc
}

// Registry routes inbound messages by id. Every id falls into one of four
// dispositions: handled-and-emitted, emit-only, ignored, or unknown (logged,
// never emitted). New server message kinds are supported by adding one entry
// here — the dispatch logic itself never changes.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns an empty dispatch registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Handle registers a side-effecting handler for id. The handler runs before
// the message is emitted to listeners.
func (r *Registry) Handle(id string, fn HandlerFunc) {
	r.entries[id] = entry{kind: dispHandled, fn: fn}
}

// EmitOnly marks ids as valid messages with no handler: they are emitted
// to listeners untouched.
func (r *Registry) EmitOnly(ids ...string) {
	for _, id := range ids {
		r.entries[id] = entry{kind: dispEmitOnly}
	}
}

// Ignore marks ids as protocol noise (pure acks): valid, never emitted.
func (r *Registry) Ignore(ids ...string) {
	for _, id := range ids {
		r.entries[id] = entry{kind: dispIgnore}
	}
}

// Dispatch routes one inbound message. It returns true when the message
// should be emitted to listeners under its id.
func (r *Registry) Dispatch(m *Message) bool {
	e, ok := r.entries[m.ID]
	if !ok {
		util.LogWarning("unknown message id %q, dropping", m.ID)
		return false
	}
	switch e.kind {
	case dispHandled:
		e.fn(m)
		return true
	case dispEmitOnly:
		return true
	default:
		return false
	}
}
