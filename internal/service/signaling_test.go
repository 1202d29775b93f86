package service

import (
	"context"
	"encoding/json"
	"testing"

	"pairdesk/internal/model"
	"pairdesk/internal/registry"
)

func newSignalingFixture(t *testing.T) (*SignalingService, *fakeBroadcaster, *model.Session) {
	t.Helper()
	repo := newMemRepo()
	reg := registry.New()
	bc := newFakeBroadcaster()
	rooms := NewRoomService(repo, reg, bc)

	sess := &model.Session{ConnectionID: "caller"}
	rooms.Join(context.Background(), sess, "room-1")

	return NewSignalingService(bc), bc, sess
}

func TestRelayForwardsVerbatim(t *testing.T) {
	svc, bc, sess := newSignalingFixture(t)

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	svc.Relay(sess, EventOffer, sdp)

	offers := bc.broadcastsOf(EventOffer)
	if len(offers) != 1 {
		t.Fatalf("Expected 1 offer relayed, got %d", len(offers))
	}
	if offers[0].exclude != "caller" {
		t.Error("relay should exclude the sender")
	}
	raw, ok := offers[0].payload.(json.RawMessage)
	if !ok {
		t.Fatalf("payload should pass through untouched, got %T", offers[0].payload)
	}
	if string(raw) != string(sdp) {
		t.Errorf("payload modified in flight: %s", raw)
	}
}

func TestRelayCallRequestCarriesSender(t *testing.T) {
	svc, bc, sess := newSignalingFixture(t)

	svc.Relay(sess, EventCallRequest, nil)

	requests := bc.broadcastsOf(EventCallRequest)
	if len(requests) != 1 {
		t.Fatalf("Expected 1 call-request, got %d", len(requests))
	}
	req, ok := requests[0].payload.(model.CallRequest)
	if !ok {
		t.Fatalf("call-request payload has wrong type %T", requests[0].payload)
	}
	if req.From != "caller" {
		t.Errorf("Expected from %q, got %q", "caller", req.From)
	}
}

func TestRelayDropsUnjoinedSender(t *testing.T) {
	svc, bc, _ := newSignalingFixture(t)

	stranger := &model.Session{ConnectionID: "stranger"}
	before := len(bc.broadcasts)
	svc.Relay(stranger, EventICECandidate, json.RawMessage(`{}`))

	if len(bc.broadcasts) != before {
		t.Error("unjoined sender should be dropped silently")
	}
}
