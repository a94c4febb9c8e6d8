package protocol_test

import (
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/protocol"
)

// TestEncodeDecodeRoundTrip verifies that encoding and decoding are inverse
// operations for representative messages of both protocols.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	sdpMid := "0"
	testCases := []struct {
		name string
		msg  *protocol.Message
	}{
		{
			name: "login request",
			msg:  &protocol.Message{ID: protocol.MsgLogin, UserID: "alice", Password: "s3cret"},
		},
		{
			name: "login response with session",
			msg: &protocol.Message{
				ID:     protocol.MsgLoginResponse,
				Status: protocol.StatusOK,
				Token:  "tok-1",
				UserID: "alice",
			},
		},
		{
			name: "room detail",
			msg: &protocol.Message{
				ID:     protocol.MsgGetRoomResponse,
				Status: protocol.StatusOK,
				Room:   &protocol.Room{ID: "studio.1", Master: "alice", Guests: []string{"bob"}},
			},
		},
		{
			name: "trickled candidate",
			msg: &protocol.Message{
				ID:     protocol.MsgCandidate,
				CallID: "c-7",
				Candidate: &webrtc.ICECandidateInit{
					Candidate: "candidate:1 1 udp 2122260223 192.0.2.1 54321 typ host",
					SDPMid:    &sdpMid,
				},
			},
		},
		{
			name: "register response with ice servers",
			msg: &protocol.Message{
				ID:     protocol.MsgRegisterResponse,
				Status: protocol.StatusOK,
				UserID: "alice",
				ICEServers: []protocol.ICEServer{
					{URLs: []string{"stun:stun.example.org:3478"}},
					{URLs: []string{"turn:turn.example.org:3478"}, Username: "u", Credential: "p"},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := protocol.Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := protocol.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded.ID != tc.msg.ID {
				t.Errorf("ID mismatch: got %q, want %q", decoded.ID, tc.msg.ID)
			}
			if decoded.Status != tc.msg.Status {
				t.Errorf("Status mismatch: got %q, want %q", decoded.Status, tc.msg.Status)
			}
			if decoded.UserID != tc.msg.UserID || decoded.Token != tc.msg.Token {
				t.Errorf("session fields mismatch: got %+v", decoded)
			}
			if tc.msg.Room != nil {
				if decoded.Room == nil || decoded.Room.ID != tc.msg.Room.ID {
					t.Errorf("Room mismatch: got %+v, want %+v", decoded.Room, tc.msg.Room)
				}
			}
			if tc.msg.Candidate != nil {
				if decoded.Candidate == nil || decoded.Candidate.Candidate != tc.msg.Candidate.Candidate {
					t.Errorf("Candidate mismatch: got %+v", decoded.Candidate)
				}
			}
			if len(decoded.ICEServers) != len(tc.msg.ICEServers) {
				t.Errorf("ICEServers length mismatch: got %d, want %d",
					len(decoded.ICEServers), len(tc.msg.ICEServers))
			}
		})
	}
}

// TestDecodeInvalid verifies that malformed input yields an error, not a
// partially populated message.
func TestDecodeInvalid(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"truncated object", []byte(`{"id":"login"`)},
		{"wrong top-level type", []byte(`[1,2,3]`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := protocol.Decode(tc.data); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// TestDecodeToleratesUnknownFields verifies forward compatibility: extra
// fields sent by a newer server are ignored.
func TestDecodeToleratesUnknownFields(t *testing.T) {
	data := []byte(`{"id":"pong","status":"ok","shiny_new_field":42}`)
	m, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m.ID != protocol.MsgPong || !m.OK() {
		t.Errorf("got %+v, want pong/ok", m)
	}
}

// TestOK verifies the status predicate.
func TestOK(t *testing.T) {
	testCases := []struct {
		status string
		want   bool
	}{
		{protocol.StatusOK, true},
		{protocol.StatusError, false},
		{"", false},
	}
	for _, tc := range testCases {
		m := &protocol.Message{Status: tc.status}
		if m.OK() != tc.want {
			t.Errorf("OK() with status %q: got %v, want %v", tc.status, m.OK(), tc.want)
		}
	}
}
