package service

import (
	"encoding/json"

	"pairdesk/internal/model"
)

// SignalingService relays call-control and WebRTC negotiation messages
// between the members of a room. It is stateless and never inspects the
// payload: SDP offers, answers and ICE candidates pass through verbatim.
type SignalingService struct {
	bc Broadcaster
}

// NewSignalingService creates a new signaling relay.
func NewSignalingService(bc Broadcaster) *SignalingService {
	return &SignalingService{bc: bc}
}

// Relay forwards a signaling event to the other member(s) of the sender's
// room. Senders that have not joined a room are dropped silently. A
// call-request carries the sender's connection id so the receiver knows
// whom to answer; every other event forwards its payload untouched.
func (s *SignalingService) Relay(sess *model.Session, event string, payload json.RawMessage) {
	if !sess.Joined() {
		return
	}

	if event == EventCallRequest {
		s.bc.BroadcastToRoom(sess.RoomKey, event, model.CallRequest{From: sess.ConnectionID}, sess.ConnectionID)
		return
	}

	s.bc.BroadcastToRoom(sess.RoomKey, event, payload, sess.ConnectionID)
}
