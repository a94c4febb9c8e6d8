// Package rtc implements the call-negotiation client: offer/answer/candidate
// exchange over the signaling channel and the lifecycle of the native peer
// connections behind each call.
package rtc

import (
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/media"
)

// CallState is a call's position in its lifecycle. Transitions are monotonic:
// once terminal, a call never changes state again and its id is never reused.
type CallState int

const (
	CallCalling CallState = iota
	CallRinging
	CallNegotiating
	CallConnected
	CallDisconnected
	CallCanceled
	CallFailed
)

func (s CallState) String() string {
	switch s {
	case CallCalling:
		return "calling"
	case CallRinging:
		return "ringing"
	case CallNegotiating:
		return "negotiating"
	case CallConnected:
		return "connected"
	case CallDisconnected:
		return "disconnected"
	case CallCanceled:
		return "canceled"
	case CallFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Terminal reports whether no further transitions are allowed.
func (s CallState) Terminal() bool {
	return s == CallDisconnected || s == CallCanceled || s == CallFailed
}

// Call is one negotiated media session. It exclusively owns its peer
// connection: created when negotiation starts, closed when the call ends for
// any reason.
type Call struct {
	ID       string
	CallerID string
	CalleeID string

	pc     *webrtc.PeerConnection
	stream media.MixedStream

	mu       sync.Mutex
	state    CallState
	buffered []webrtc.ICECandidateInit

	statsOnce   sync.Once
	startedOnce sync.Once
	closeOnce   sync.Once
}

func newCall(id, callerID, calleeID string, state CallState) *Call {
	return &Call{ID: id, CallerID: callerID, CalleeID: calleeID, state: state}
}

// State returns the current call state.
func (c *Call) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// advance moves the call forward. Transitions out of a terminal state are
// refused, as are moves backwards in the lifecycle; it reports whether the
// transition happened.
func (c *Call) advance(next CallState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() || (next < c.state && !next.Terminal()) {
		return false
	}
	c.state = next
	return true
}

// attachPC publishes the peer connection; candidates buffered in the interim
// are drained by the caller once the remote description is applied.
func (c *Call) attachPC(pc *webrtc.PeerConnection) {
	c.mu.Lock()
	c.pc = pc
	c.mu.Unlock()
}

// bufferCandidate parks a candidate that raced ahead of the offer, before
// the peer connection exists. It reports false once a connection is attached,
// in which case the caller applies the candidate directly.
func (c *Call) bufferCandidate(init webrtc.ICECandidateInit) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pc != nil {
		return false
	}
	c.buffered = append(c.buffered, init)
	return true
}

// takeBuffered drains the candidates parked before the connection existed.
func (c *Call) takeBuffered() []webrtc.ICECandidateInit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.buffered
	c.buffered = nil
	return out
}

// close shuts the native connection down exactly once.
func (c *Call) close() {
	c.closeOnce.Do(func() {
		if c.pc != nil {
			_ = c.pc.Close()
		}
	})
}
