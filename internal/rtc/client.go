package rtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/event"
	"github.com/upf-gti/admire-sub000/internal/media"
	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/transport"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// Events emitted on the client's bus beyond the per-message-id events.
const (
	EventClientConnected    = "client_connected"
	EventClientDisconnected = "client_disconnected"
	EventCallState          = "call_state"
	EventCallStarted        = "call_started"
	EventCallStats          = "call_stats"
)

// Client is the call-negotiation state machine. It owns the signaling
// channel, the call registry, and the pending-stream registry; every peer
// connection it creates is destroyed when its call ends for any reason.
type Client struct {
	bus         *event.Bus
	reg         *protocol.Registry
	codecs      CodecProvider
	stunServers []string
	heartbeat   time.Duration

	pending *pendingStreams

	mu              sync.Mutex
	ch              *transport.Channel
	userID          string
	iceServers      []protocol.ICEServer
	calls           map[string]*Call
	acceptedStreams map[string]string // callID → streamID on the callee side
	hbStop          chan struct{}
}

// NewClient builds an RTC client. codecs may be nil, in which case peer
// connections use the default codec set.
func NewClient(bus *event.Bus, codecs CodecProvider, stunServers []string, heartbeat time.Duration) *Client {
	c := &Client{
		bus:             bus,
		codecs:          codecs,
		stunServers:     stunServers,
		heartbeat:       heartbeat,
		pending:         newPendingStreams(),
		calls:           make(map[string]*Call),
		acceptedStreams: make(map[string]string),
	}
	c.reg = c.buildRegistry()
	return c
}

// Bus returns the client's event bus.
func (c *Client) Bus() *event.Bus { return c.bus }

// UserID returns the registered identity, empty while unregistered.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// CallFor returns the live call for id, if any.
func (c *Client) CallFor(id string) (*Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[id]
	return call, ok
}

// Connect dials the signaling server and starts reading.
func (c *Client) Connect(ctx context.Context, url string) error {
	ch, err := transport.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("rtc connect: %w", err)
	}
	ch.OnMessage(c.handleMessage)
	ch.OnClose(c.handleClose)

	c.mu.Lock()
	c.ch = ch
	c.mu.Unlock()

	ch.Listen()
	c.bus.Emit(EventClientConnected)
	return nil
}

// Close tears the channel down; handleClose performs the cleanup.
func (c *Client) Close() {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch != nil {
		_ = ch.Close()
	}
}

func (c *Client) send(m *protocol.Message) {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		util.LogDebug("rtc not connected, dropping %q", m.ID)
		return
	}
	ch.Send(m)
}

func (c *Client) handleMessage(m *protocol.Message) {
	if c.reg.Dispatch(m) {
		c.bus.Emit(m.ID, m)
	}
}

// handleClose clears registration state so in-flight continuations observe
// the disconnect, stops the heartbeat, and destroys every live call.
func (c *Client) handleClose(err error) {
	c.mu.Lock()
	c.userID = ""
	c.iceServers = nil
	calls := c.calls
	c.calls = make(map[string]*Call)
	c.acceptedStreams = make(map[string]string)
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
	c.ch = nil
	c.mu.Unlock()

	// Every parked stream references the dead connection; none can be matched.
	c.pending.clear()

	for _, call := range calls {
		call.advance(CallDisconnected)
		call.close()
		util.Stats.CloseCall()
	}
	if err != nil {
		util.LogWarning("rtc channel closed: %v", err)
	}
	c.bus.Emit(EventClientDisconnected)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Register announces the authenticated identity to the signaling server. The
// response delivers the ICE server set used for subsequent calls.
func (c *Client) Register(userID, token string) {
	c.send(&protocol.Message{ID: protocol.MsgRegister, UserID: userID, Token: token})
}

// Call asks the server to ring calleeID. The stream is parked in the pending
// registry under a fresh id; only the id crosses the signaling channel —
// media never does. The call object itself is created when the server
// matches both parties and answers with start_call.
func (c *Client) Call(calleeID string, stream media.MixedStream) string {
	streamID := c.pending.add(stream)
	c.send(&protocol.Message{ID: protocol.MsgCall, CalleeID: calleeID, StreamID: streamID})
	return streamID
}

// AcceptCall answers an incoming_call. The local stream is parked like on the
// caller side; the peer connection is built when the remote offer arrives.
func (c *Client) AcceptCall(callID, callerID string, stream media.MixedStream) string {
	streamID := c.pending.add(stream)

	c.mu.Lock()
	if _, exists := c.calls[callID]; !exists {
		c.calls[callID] = newCall(callID, callerID, c.userID, CallRinging)
	}
	c.acceptedStreams[callID] = streamID
	c.mu.Unlock()

	c.send(&protocol.Message{ID: protocol.MsgAcceptCall, CallID: callID, StreamID: streamID})
	return streamID
}

// CancelCall withdraws a not-yet-established call and frees its pending
// stream. Pure local cleanup plus one notification; never retried.
func (c *Client) CancelCall(callID, streamID string) {
	c.pending.drop(streamID)

	c.mu.Lock()
	call, ok := c.calls[callID]
	if ok {
		delete(c.calls, callID)
	}
	delete(c.acceptedStreams, callID)
	c.mu.Unlock()

	if ok {
		call.advance(CallCanceled)
		call.close()
		util.Stats.CloseCall()
		c.bus.Emit(EventCallState, call.ID, call.State())
	}
	c.send(&protocol.Message{ID: protocol.MsgCancelCall, CallID: callID, StreamID: streamID})
}

// Hangup ends a call: the native connection is closed, the call removed, any
// still-parked stream freed, and the server notified. Hanging up an unknown
// call is a no-op.
func (c *Client) Hangup(callID string) {
	c.mu.Lock()
	call, ok := c.calls[callID]
	if ok {
		delete(c.calls, callID)
	}
	sid, parked := c.acceptedStreams[callID]
	delete(c.acceptedStreams, callID)
	c.mu.Unlock()
	if parked {
		c.pending.drop(sid)
	}
	if !ok {
		return
	}

	call.advance(CallDisconnected)
	call.close()
	util.Stats.CloseCall()
	c.send(&protocol.Message{ID: protocol.MsgHangup, CallID: callID})
	c.bus.Emit(EventCallState, call.ID, call.State())
}

// ---------------------------------------------------------------------------
// Peer wiring
// ---------------------------------------------------------------------------

// wirePeer attaches the signaling callbacks to a call's peer connection.
func (c *Client) wirePeer(call *Call) {
	pc := call.pc

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		c.send(&protocol.Message{ID: protocol.MsgCandidate, CallID: call.ID, Candidate: &init})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.onConnectionState(call, state)
	})
}

// attachLocal adds the call's outbound tracks to its peer connection. This
// runs to completion before any offer or answer is produced, so local media
// is always part of the negotiated SDP.
func (c *Client) attachLocal(call *Call) {
	for _, t := range call.stream.Tracks() {
		if t == nil {
			continue
		}
		if _, err := call.pc.AddTrack(t); err != nil {
			util.LogWarning("call %s: failed to attach local track: %v", call.ID, err)
		}
	}
}

// onConnectionState reacts to the native connection's lifecycle: connected
// produces the one-shot stats report and the call_started event; failed or
// disconnected triggers exactly one automatic hangup.
func (c *Client) onConnectionState(call *Call, state webrtc.PeerConnectionState) {
	util.LogDebug("call %s: connection state %s", call.ID, state)

	switch state {
	case webrtc.PeerConnectionStateConnected:
		if call.advance(CallConnected) {
			c.bus.Emit(EventCallState, call.ID, call.State())
		}
		call.statsOnce.Do(func() {
			if stats, ok := collectStats(call.ID, call.pc); ok {
				c.bus.Emit(EventCallStats, stats)
			}
		})
		call.startedOnce.Do(func() {
			c.bus.Emit(EventCallStarted, call.ID, remoteStream(call.pc))
		})

	case webrtc.PeerConnectionStateFailed:
		// Hangup emits the terminal call_state exactly once.
		if call.advance(CallFailed) {
			c.Hangup(call.ID)
		}

	case webrtc.PeerConnectionStateDisconnected:
		if call.advance(CallDisconnected) {
			c.Hangup(call.ID)
		}
	}
}

// remoteStream reconstructs the remote media by draining the connection's
// receivers.
func remoteStream(pc *webrtc.PeerConnection) []*webrtc.TrackRemote {
	var tracks []*webrtc.TrackRemote
	for _, r := range pc.GetReceivers() {
		if t := r.Track(); t != nil {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
