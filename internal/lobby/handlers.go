package lobby

import (
	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/store"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// buildRegistry wires the four-way dispatch table. Handled entries mutate
// session state before the message is emitted; emit-only entries carry data
// the presentation layer consumes directly; ignored entries are pure acks.
func (c *Client) buildRegistry() *protocol.Registry {
	r := protocol.NewRegistry()

	r.Handle(protocol.MsgLoginResponse, c.onLoginResponse)
	r.Handle(protocol.MsgAutologinResponse, c.onAutologinResponse)
	r.Handle(protocol.MsgLogoutResponse, c.onLogoutResponse)
	r.Handle(protocol.MsgJoinRoomResponse, c.onJoinRoomResponse)
	r.Handle(protocol.MsgLeaveRoomResponse, c.onLeaveRoomResponse)
	r.Handle(protocol.MsgJoinChannelResponse, c.channelMutation(true))
	r.Handle(protocol.MsgEnableChannelResponse, c.channelMutation(true))
	r.Handle(protocol.MsgLeaveChannelResponse, c.channelMutation(false))
	r.Handle(protocol.MsgDisableChannelResponse, c.channelMutation(false))
	r.Handle(protocol.MsgChannelDisabled, c.onChannelDisabled)
	r.Handle(protocol.MsgMasterLeftRoom, c.onMasterLeftRoom)

	r.EmitOnly(
		protocol.MsgCreateRoomResponse,
		protocol.MsgGetRoomsResponse,
		protocol.MsgGetRoomResponse,
		protocol.MsgGuestJoinedRoom,
		protocol.MsgGuestLeftRoom,
	)

	r.Ignore(protocol.MsgForwardResponse)

	return r
}

func (c *Client) onLoginResponse(m *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !m.OK() {
		c.state = StateAnonymous
		return
	}
	c.session = newSession()
	c.session.Token = m.Token
	c.session.UserID = m.UserID
	c.session.UserType = m.UserType
	c.state = StateAuthenticated
	c.persistToken(m.Token)
}

func (c *Client) onAutologinResponse(m *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !m.OK() {
		// Fail closed: a rejected token is cleared, never replayed.
		c.state = StateAnonymous
		if err := c.prefs.Delete(store.KeyToken); err != nil {
			util.LogWarning("failed to clear token: %v", err)
		}
		return
	}
	c.session = newSession()
	c.session.Token = m.Token
	c.session.UserID = m.UserID
	c.session.UserType = m.UserType
	c.state = StateAuthenticated
	if m.RoomID != "" {
		// The server still holds an active room membership for this session.
		c.session.RoomID = m.RoomID
		c.state = StateInRoom
	}
	c.persistToken(m.Token)
}

func (c *Client) onLogoutResponse(m *protocol.Message) {
	if !m.OK() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = newSession()
	c.state = StateAnonymous
	if err := c.prefs.Delete(store.KeyToken); err != nil {
		util.LogWarning("failed to clear token: %v", err)
	}
}

func (c *Client) onJoinRoomResponse(m *protocol.Message) {
	if !m.OK() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.RoomID = m.RoomID
	c.session.JoinedChannels = make(map[string]struct{})
	c.state = StateInRoom
}

func (c *Client) onLeaveRoomResponse(m *protocol.Message) {
	if !m.OK() {
		return
	}
	c.clearRoom()
}

// onMasterLeftRoom handles the room dissolving under a guest: the membership
// is gone server-side, so local room state is cleared the same way a
// confirmed leave would.
func (c *Client) onMasterLeftRoom(_ *protocol.Message) {
	c.clearRoom()
}

// clearRoom drops RoomID and the joined channels in one step.
func (c *Client) clearRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.RoomID = ""
	c.session.JoinedChannels = make(map[string]struct{})
	if c.state == StateInRoom {
		c.state = StateAuthenticated
	}
}

// channelMutation returns a handler adding or removing m.Channel from the
// joined set on a successful response.
func (c *Client) channelMutation(add bool) protocol.HandlerFunc {
	return func(m *protocol.Message) {
		if !m.OK() {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if add {
			c.session.JoinedChannels[m.Channel] = struct{}{}
		} else {
			delete(c.session.JoinedChannels, m.Channel)
		}
	}
}

// onChannelDisabled handles server-initiated revocation: when the push names
// this user (or no user at all), the channel is removed locally even though
// no leave was requested.
func (c *Client) onChannelDisabled(m *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.UserID != "" && m.UserID != c.session.UserID {
		return
	}
	delete(c.session.JoinedChannels, m.Channel)
}

func (c *Client) persistToken(token string) {
	if err := c.prefs.Set(store.KeyToken, token); err != nil {
		util.LogWarning("failed to persist token: %v", err)
	}
}
