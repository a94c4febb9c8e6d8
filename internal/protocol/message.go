// Package protocol defines the id-tagged JSON messages exchanged with the
// lobby and RTC signaling servers, and the dispatch registry that routes them.
package protocol

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Lobby message ids.
const (
	MsgLogin                  = "login"
	MsgLoginResponse          = "login_response"
	MsgLogout                 = "logout"
	MsgLogoutResponse         = "logout_response"
	MsgAutologin              = "autologin"
	MsgAutologinResponse      = "autologin_response"
	MsgGetRooms               = "get_rooms"
	MsgGetRoomsResponse       = "get_rooms_response"
	MsgGetRoom                = "get_room"
	MsgGetRoomResponse        = "get_room_response"
	MsgCreateRoom             = "create_room"
	MsgCreateRoomResponse     = "create_room_response"
	MsgJoinRoom               = "join_room"
	MsgJoinRoomResponse       = "join_room_response"
	MsgLeaveRoom              = "leave_room"
	MsgLeaveRoomResponse      = "leave_room_response"
	MsgEnableChannel          = "enable_channel"
	MsgEnableChannelResponse  = "enable_channel_response"
	MsgDisableChannel         = "disable_channel"
	MsgDisableChannelResponse = "disable_channel_response"
	MsgJoinChannel            = "join_channel"
	MsgJoinChannelResponse    = "join_channel_response"
	MsgLeaveChannel           = "leave_channel"
	MsgLeaveChannelResponse   = "leave_channel_response"
	MsgForwardMessage         = "forward_message"
	MsgForwardResponse        = "forward_message_response"
	MsgGuestJoinedRoom        = "guest_joined_room"
	MsgMasterLeftRoom         = "master_left_room"
	MsgGuestLeftRoom          = "guest_left_room"
	MsgChannelDisabled        = "channel_disabled"
)

// RTC message ids.
const (
	MsgRegister           = "register"
	MsgRegisterResponse   = "register_response"
	MsgCall               = "call"
	MsgCallResponse       = "call_response"
	MsgIncomingCall       = "incoming_call"
	MsgAcceptCall         = "accept_call"
	MsgAcceptCallResponse = "accept_call_response"
	MsgCancelCall         = "cancel_call"
	MsgCancelCallResponse = "cancel_call_response"
	MsgCallCanceled       = "call_canceled"
	MsgStartCall          = "start_call"
	MsgOffer              = "offer"
	MsgAnswer             = "answer"
	MsgCandidate          = "candidate"
	MsgRemoteOffer        = "remote_offer"
	MsgRemoteAnswer       = "remote_answer"
	MsgRemoteCandidate    = "remote_candidate"
	MsgHangup             = "hangup"
	MsgHangupResponse     = "hangup_response"
	MsgUserHangup         = "user_hangup"
	MsgPing               = "ping"
	MsgPong               = "pong"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Room describes one room as reported by the lobby server.
type Room struct {
	ID     string   `json:"id"`
	Master string   `json:"master,omitempty"`
	Guests []string `json:"guests,omitempty"`
}

// ICEServer mirrors the STUN/TURN entries delivered by register_response.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Message is the flat JSON envelope shared by both protocols. The Id field
// selects the message kind; all other fields are optional and populated per
// kind. Responses additionally carry Status and, on error, Description.
type Message struct {
	ID          string `json:"id"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`

	// Session / lobby fields.
	Token    string          `json:"token,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	UserType string          `json:"user_type,omitempty"`
	Password string          `json:"password,omitempty"`
	RoomID   string          `json:"room_id,omitempty"`
	Room     *Room           `json:"room,omitempty"`
	Rooms    []Room          `json:"rooms,omitempty"`
	Channel  string          `json:"channel,omitempty"`
	Channels []string        `json:"channels,omitempty"`
	TargetID string          `json:"target_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`

	// Call negotiation fields.
	CallID     string                   `json:"call_id,omitempty"`
	CallerID   string                   `json:"caller_id,omitempty"`
	CalleeID   string                   `json:"callee_id,omitempty"`
	StreamID   string                   `json:"stream_id,omitempty"`
	SDP        string                   `json:"sdp,omitempty"`
	Candidate  *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	ICEServers []ICEServer              `json:"ice_servers,omitempty"`
}

// OK reports whether a response message carries a success status.
func (m *Message) OK() bool {
	return m.Status == StatusOK
}

// Encode serializes a Message for transmission.
func Encode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserializes raw channel data into a Message.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
