package rtc

import (
	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// buildRegistry wires the four-way dispatch table for the RTC protocol.
func (c *Client) buildRegistry() *protocol.Registry {
	r := protocol.NewRegistry()

	r.Handle(protocol.MsgRegisterResponse, c.onRegisterResponse)
	r.Handle(protocol.MsgStartCall, c.onStartCall)
	r.Handle(protocol.MsgRemoteOffer, c.onRemoteOffer)
	r.Handle(protocol.MsgRemoteAnswer, c.onRemoteAnswer)
	r.Handle(protocol.MsgRemoteCandidate, c.onRemoteCandidate)
	r.Handle(protocol.MsgCallResponse, c.onCallResponse)
	r.Handle(protocol.MsgAcceptCallResponse, c.onAcceptCallResponse)
	r.Handle(protocol.MsgCallCanceled, c.onCallCanceled)
	r.Handle(protocol.MsgUserHangup, c.onUserHangup)

	r.EmitOnly(protocol.MsgIncomingCall)

	r.Ignore(
		protocol.MsgPong,
		protocol.MsgHangupResponse,
		protocol.MsgCancelCallResponse,
	)

	return r
}

// onRegisterResponse records the confirmed identity and the ICE server set,
// then starts the keep-alive loop.
func (c *Client) onRegisterResponse(m *protocol.Message) {
	if !m.OK() {
		return
	}
	c.mu.Lock()
	c.userID = m.UserID
	c.iceServers = m.ICEServers
	c.mu.Unlock()
	c.startHeartbeat()
}

// onStartCall is the caller-side kickoff: the server has matched both
// parties, so the parked stream is consumed, the peer connection built, and
// the offer left to the renegotiation-needed callback once local tracks are
// attached.
func (c *Client) onStartCall(m *protocol.Message) {
	stream, ok := c.pending.take(m.StreamID)
	if !ok {
		util.LogWarning("start_call for unknown stream %q, ignoring", m.StreamID)
		return
	}

	c.mu.Lock()
	if _, exists := c.calls[m.CallID]; exists {
		c.mu.Unlock()
		util.LogWarning("start_call for existing call %q, ignoring", m.CallID)
		return
	}
	call := newCall(m.CallID, m.CallerID, m.CalleeID, CallNegotiating)
	call.stream = stream
	c.calls[m.CallID] = call
	c.mu.Unlock()

	pc, err := c.newPeerConnection()
	if err != nil {
		util.LogError("call %s: failed to create peer connection: %v", m.CallID, err)
		c.dropCall(m.CallID, CallFailed)
		return
	}
	call.attachPC(pc)
	pc.OnNegotiationNeeded(func() { c.sendOffer(call) })
	c.wirePeer(call)
	c.attachLocal(call)

	util.Stats.AddCall()
	c.bus.Emit(EventCallState, call.ID, call.State())
}

func (c *Client) sendOffer(call *Call) {
	offer, err := call.pc.CreateOffer(nil)
	if err != nil {
		util.LogError("call %s: CreateOffer: %v", call.ID, err)
		return
	}
	if err := call.pc.SetLocalDescription(offer); err != nil {
		util.LogError("call %s: SetLocalDescription: %v", call.ID, err)
		return
	}
	c.send(&protocol.Message{ID: protocol.MsgOffer, CallID: call.ID, SDP: offer.SDP})
}

// onRemoteOffer is the callee-side kickoff: build the peer connection, apply
// the remote description, attach the local stream, and only then produce the
// answer — attachment is a hard precondition, so the answer SDP always
// carries the local tracks.
func (c *Client) onRemoteOffer(m *protocol.Message) {
	c.mu.Lock()
	call, exists := c.calls[m.CallID]
	streamID := m.StreamID
	if streamID == "" {
		streamID = c.acceptedStreams[m.CallID]
	}
	delete(c.acceptedStreams, m.CallID)
	c.mu.Unlock()

	if !exists {
		util.LogWarning("remote_offer for unknown call %q, ignoring", m.CallID)
		c.pending.drop(streamID)
		return
	}

	stream, ok := c.pending.take(streamID)
	if ok {
		call.stream = stream
	} else {
		util.LogWarning("call %s: no pending stream, answering without local media", call.ID)
	}

	pc, err := c.newPeerConnection()
	if err != nil {
		util.LogError("call %s: failed to create peer connection: %v", call.ID, err)
		c.dropCall(call.ID, CallFailed)
		return
	}
	call.attachPC(pc)
	c.wirePeer(call)

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer, SDP: m.SDP,
	}); err != nil {
		util.LogError("call %s: SetRemoteDescription: %v", call.ID, err)
		c.dropCall(call.ID, CallFailed)
		return
	}

	// Candidates that outran the offer can be applied now.
	for _, init := range call.takeBuffered() {
		if err := pc.AddICECandidate(init); err != nil {
			util.LogWarning("call %s: AddICECandidate: %v", call.ID, err)
		}
	}

	c.attachLocal(call)
	if call.advance(CallNegotiating) {
		c.bus.Emit(EventCallState, call.ID, call.State())
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		util.LogError("call %s: CreateAnswer: %v", call.ID, err)
		c.dropCall(call.ID, CallFailed)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		util.LogError("call %s: SetLocalDescription: %v", call.ID, err)
		c.dropCall(call.ID, CallFailed)
		return
	}
	c.send(&protocol.Message{ID: protocol.MsgAnswer, CallID: call.ID, SDP: answer.SDP})

	util.Stats.AddCall()
}

// onRemoteAnswer applies the answer to the existing connection. A missing
// call means it was hung up while the answer was in flight — a no-op.
func (c *Client) onRemoteAnswer(m *protocol.Message) {
	call, ok := c.CallFor(m.CallID)
	if !ok {
		util.LogDebug("remote_answer for gone call %q, ignoring", m.CallID)
		return
	}
	if call.pc == nil {
		util.LogWarning("call %s: answer before any offer, ignoring", call.ID)
		return
	}
	if err := call.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer, SDP: m.SDP,
	}); err != nil {
		util.LogError("call %s: SetRemoteDescription: %v", call.ID, err)
	}
}

// onRemoteCandidate feeds a trickled candidate to the call's connection.
// Candidates racing a hangup reference no connection and are dropped
// silently — that is an ordinary race, not an error.
func (c *Client) onRemoteCandidate(m *protocol.Message) {
	call, ok := c.CallFor(m.CallID)
	if !ok || m.Candidate == nil {
		return
	}
	if call.bufferCandidate(*m.Candidate) {
		// Candidate outran the offer; applied once the offer arrives.
		util.LogDebug("call %s: buffering early candidate", call.ID)
		return
	}
	if err := call.pc.AddICECandidate(*m.Candidate); err != nil {
		util.LogWarning("call %s: AddICECandidate: %v", call.ID, err)
	}
}

// onCallResponse frees the parked stream when the server rejects the call.
func (c *Client) onCallResponse(m *protocol.Message) {
	if !m.OK() {
		c.pending.drop(m.StreamID)
	}
}

// onAcceptCallResponse rolls the callee-side bookkeeping back on rejection.
func (c *Client) onAcceptCallResponse(m *protocol.Message) {
	if m.OK() {
		return
	}
	c.pending.drop(m.StreamID)
	c.dropCall(m.CallID, CallFailed)
}

// onCallCanceled frees the parked stream and discards the call, if one was
// already created.
func (c *Client) onCallCanceled(m *protocol.Message) {
	c.pending.drop(m.StreamID)
	c.dropCall(m.CallID, CallCanceled)
}

// onUserHangup tears the call down locally; the remote side already left, so
// no hangup message goes out.
func (c *Client) onUserHangup(m *protocol.Message) {
	c.dropCall(m.CallID, CallDisconnected)
}

// dropCall removes a call and closes its connection, emitting the terminal
// state. A stream still parked for the call is freed. Unknown ids are no-ops.
func (c *Client) dropCall(callID string, terminal CallState) {
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
	call.advance(terminal)
	call.close()
	util.Stats.CloseCall()
	c.bus.Emit(EventCallState, call.ID, call.State())
}
