package service

// Broadcaster interface for WebSocket delivery (avoids import cycle with
// the transport package, which implements it).
type Broadcaster interface {
	// SendTo delivers an event to a single connection.
	SendTo(connID string, event string, payload interface{})

	// BroadcastToRoom delivers an event to every member of a room except
	// the excluded connection. An empty exclude means everyone.
	BroadcastToRoom(roomKey string, event string, payload interface{}, exclude string)
}
