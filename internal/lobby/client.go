package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/upf-gti/admire-sub000/internal/event"
	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/store"
	"github.com/upf-gti/admire-sub000/internal/transport"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// Events emitted on the client's bus beyond the per-message-id events.
const (
	EventClientConnected    = "client_connected"
	EventClientDisconnected = "client_disconnected"
)

// ErrInvalidRoomID is returned for room ids rejected by local validation,
// before any network round trip.
var ErrInvalidRoomID = errors.New("invalid room id")

// ErrNoToken is returned by Autologin when no token is persisted.
var ErrNoToken = errors.New("no persisted token")

// Client is the lobby protocol state machine. Outbound requests are
// fire-and-forget; the server always answers with a *_response message that
// drives the state transitions. There is no client-side timeout or retry.
type Client struct {
	bus   *event.Bus
	reg   *protocol.Registry
	prefs store.Store

	mu      sync.Mutex
	ch      *transport.Channel
	state   State
	session Session
}

// NewClient builds a lobby client with its dispatch table wired.
func NewClient(bus *event.Bus, prefs store.Store) *Client {
	c := &Client{
		bus:     bus,
		prefs:   prefs,
		state:   StateAnonymous,
		session: newSession(),
	}
	c.reg = c.buildRegistry()
	return c
}

// Bus returns the client's event bus.
func (c *Client) Bus() *event.Bus { return c.bus }

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Connect dials the lobby server and starts reading. Reconnecting after a
// close requires a fresh Connect call.
func (c *Client) Connect(ctx context.Context, url string) error {
	ch, err := transport.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("lobby connect: %w", err)
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

// Close tears the channel down.
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
		util.LogDebug("lobby not connected, dropping %q", m.ID)
		return
	}
	ch.Send(m)
}

// handleMessage routes one inbound message through the dispatch table and
// re-emits it under its id when the table says so.
func (c *Client) handleMessage(m *protocol.Message) {
	if c.reg.Dispatch(m) {
		c.bus.Emit(m.ID, m)
	}
}

// handleClose clears the session (the token stores are untouched so a later
// Autologin can replay) and notifies listeners. Reconnection policy is the
// presentation layer's call.
func (c *Client) handleClose(err error) {
	c.mu.Lock()
	c.state = StateAnonymous
	c.session = newSession()
	c.ch = nil
	c.mu.Unlock()
	if err != nil {
		util.LogWarning("lobby channel closed: %v", err)
	}
	c.bus.Emit(EventClientDisconnected)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Login authenticates with explicit credentials.
func (c *Client) Login(userID, password string) {
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()
	c.send(&protocol.Message{ID: protocol.MsgLogin, UserID: userID, Password: password})
}

// Autologin replays the persisted token. It fails closed: a rejected token is
// cleared from both stores and never retried automatically.
func (c *Client) Autologin() error {
	token, ok := c.prefs.Get(store.KeyToken)
	if !ok {
		return ErrNoToken
	}
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()
	c.send(&protocol.Message{ID: protocol.MsgAutologin, Token: token})
	return nil
}

// Logout ends the session server-side; the response clears local state.
func (c *Client) Logout() {
	c.send(&protocol.Message{ID: protocol.MsgLogout})
}

// CreateRoom validates the id locally and only then asks the server.
func (c *Client) CreateRoom(roomID string) error {
	if !ValidRoomID(roomID) {
		return ErrInvalidRoomID
	}
	c.send(&protocol.Message{ID: protocol.MsgCreateRoom, RoomID: roomID})
	return nil
}

// GetRooms asks for the current room list.
func (c *Client) GetRooms() {
	c.send(&protocol.Message{ID: protocol.MsgGetRooms})
}

// GetRoom asks for one room's detail.
func (c *Client) GetRoom(roomID string) {
	c.send(&protocol.Message{ID: protocol.MsgGetRoom, RoomID: roomID})
}

// JoinRoom requests membership of roomID.
func (c *Client) JoinRoom(roomID string) {
	c.send(&protocol.Message{ID: protocol.MsgJoinRoom, RoomID: roomID})
}

// LeaveRoom gives the membership up; the response clears RoomID and the
// joined channels together.
func (c *Client) LeaveRoom() {
	c.send(&protocol.Message{ID: protocol.MsgLeaveRoom})
}

// JoinChannel / LeaveChannel / EnableChannel / DisableChannel manage the
// channel set inside the current room.
func (c *Client) JoinChannel(channel string) {
	c.send(&protocol.Message{ID: protocol.MsgJoinChannel, Channel: channel})
}

func (c *Client) LeaveChannel(channel string) {
	c.send(&protocol.Message{ID: protocol.MsgLeaveChannel, Channel: channel})
}

func (c *Client) EnableChannel(channel string) {
	c.send(&protocol.Message{ID: protocol.MsgEnableChannel, Channel: channel})
}

func (c *Client) DisableChannel(channel string) {
	c.send(&protocol.Message{ID: protocol.MsgDisableChannel, Channel: channel})
}

// ForwardMessage relays an opaque payload to another user. Forwarding to
// oneself is silently dropped — no outbound message is produced.
func (c *Client) ForwardMessage(targetID string, payload json.RawMessage) {
	c.mu.Lock()
	self := c.session.UserID
	c.mu.Unlock()
	if targetID == self {
		return
	}
	c.send(&protocol.Message{ID: protocol.MsgForwardMessage, TargetID: targetID, Data: payload})
}
