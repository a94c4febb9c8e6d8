// Package lobby implements the application-side session and room protocol:
// authentication, room membership, and channel management over one WebSocket
// channel.
package lobby

import (
	"regexp"
)

// State is the lobby client's position in the session lifecycle.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateInRoom:
		return "in_room"
	default:
		return "invalid"
	}
}

// Session holds the server-confirmed identity and room membership. RoomID is
// non-empty only while a membership is confirmed; JoinedChannels is cleared
// whenever RoomID is cleared.
type Session struct {
	Token          string
	UserID         string
	UserType       string
	RoomID         string
	JoinedChannels map[string]struct{}
}

func newSession() Session {
	return Session{JoinedChannels: make(map[string]struct{})}
}

// clone returns a copy safe to hand to callers.
func (s Session) clone() Session {
	out := s
	out.JoinedChannels = make(map[string]struct{}, len(s.JoinedChannels))
	for ch := range s.JoinedChannels {
		out.JoinedChannels[ch] = struct{}{}
	}
	return out
}

// roomIDPattern: alphanumeric runs joined by single '.', '-' or '_'
// separators, no leading or trailing separator, non-empty.
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+([._-][A-Za-z0-9]+)*$`)

// ValidRoomID reports whether id is acceptable as a room identifier.
func ValidRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}
