package model

// Session is a single live connection's membership state. It exists only
// for the lifetime of the connection and is never persisted.
type Session struct {
	ConnectionID string
	// RoomKey is empty until the connection joins a room. A session holds
	// at most one room for its entire lifetime; a second join is rejected
	// rather than switching rooms.
	RoomKey string
}

// Joined reports whether the session is currently a room member.
func (s *Session) Joined() bool {
	return s.RoomKey != ""
}
