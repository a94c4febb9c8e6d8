package rtc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/upf-gti/admire-sub000/internal/media"
)

// pendingStreams maps locally generated stream ids to outbound streams
// awaiting pickup by the negotiation handshake. Entries are removed when the
// handshake consumes them, or on cancellation/error.
type pendingStreams struct {
	mu      sync.Mutex
	streams map[string]media.MixedStream
}

func newPendingStreams() *pendingStreams {
	return &pendingStreams{streams: make(map[string]media.MixedStream)}
}

// add registers a stream under a fresh unique id. Collisions with ids still
// in flight are detected and regenerated.
func (p *pendingStreams) add(stream media.MixedStream) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	for _, exists := p.streams[id]; exists; _, exists = p.streams[id] {
		id = uuid.NewString()
	}
	p.streams[id] = stream
	return id
}

// take removes and returns the stream for id.
func (p *pendingStreams) take(id string) (media.MixedStream, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[id]
	if ok {
		delete(p.streams, id)
	}
	return s, ok
}

// drop discards the entry for id, if any.
func (p *pendingStreams) drop(id string) {
	p.mu.Lock()
	delete(p.streams, id)
	p.mu.Unlock()
}

// clear discards every parked stream.
func (p *pendingStreams) clear() {
	p.mu.Lock()
	p.streams = make(map[string]media.MixedStream)
	p.mu.Unlock()
}

// size returns the number of streams awaiting pickup.
func (p *pendingStreams) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams)
}
