package ws

import (
	"encoding/json"
	"testing"

	"pairdesk/internal/registry"
)

func newTestConn(id string) *Connection {
	return &Connection{ID: id, Send: make(chan []byte, 16)}
}

func receive(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("malformed envelope: %v", err)
		}
		return &msg
	default:
		return nil
	}
}

func TestSendToTargetsOneConnection(t *testing.T) {
	reg := registry.New()
	hub := NewHub(reg)

	a := newTestConn("a")
	b := newTestConn("b")
	hub.Register(a)
	hub.Register(b)

	hub.SendTo("a", "user-id", "a")

	if msg := receive(t, a); msg == nil || msg.Type != "user-id" {
		t.Errorf("a should receive user-id, got %+v", msg)
	}
	if msg := receive(t, b); msg != nil {
		t.Errorf("b should receive nothing, got %+v", msg)
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	reg := registry.New()
	hub := NewHub(reg)

	a := newTestConn("a")
	b := newTestConn("b")
	hub.Register(a)
	hub.Register(b)
	reg.TryAdmit("room-1", "a")
	reg.TryAdmit("room-1", "b")

	hub.BroadcastToRoom("room-1", "file-update", map[string]string{"fileId": "default"}, "a")

	if msg := receive(t, a); msg != nil {
		t.Errorf("sender should not receive its own broadcast, got %+v", msg)
	}
	msg := receive(t, b)
	if msg == nil || msg.Type != "file-update" {
		t.Fatalf("b should receive file-update, got %+v", msg)
	}
}

func TestBroadcastToWholeRoom(t *testing.T) {
	reg := registry.New()
	hub := NewHub(reg)

	a := newTestConn("a")
	b := newTestConn("b")
	hub.Register(a)
	hub.Register(b)
	reg.TryAdmit("room-1", "a")
	reg.TryAdmit("room-1", "b")

	hub.BroadcastToRoom("room-1", "users-update", []string{"a", "b"}, "")

	for _, conn := range []*Connection{a, b} {
		if msg := receive(t, conn); msg == nil || msg.Type != "users-update" {
			t.Errorf("%s should receive users-update, got %+v", conn.ID, msg)
		}
	}
}

func TestBroadcastSkipsOtherRooms(t *testing.T) {
	reg := registry.New()
	hub := NewHub(reg)

	a := newTestConn("a")
	c := newTestConn("c")
	hub.Register(a)
	hub.Register(c)
	reg.TryAdmit("room-1", "a")
	reg.TryAdmit("room-2", "c")

	hub.BroadcastToRoom("room-1", "chat-message", "hello", "")

	if msg := receive(t, c); msg != nil {
		t.Errorf("member of another room should receive nothing, got %+v", msg)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	reg := registry.New()
	hub := NewHub(reg)

	a := newTestConn("a")
	hub.Register(a)
	if hub.ConnectionCount() != 1 {
		t.Fatalf("Expected 1 connection, got %d", hub.ConnectionCount())
	}

	hub.Unregister(a)
	if hub.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections, got %d", hub.ConnectionCount())
	}
	if _, open := <-a.Send; open {
		t.Error("send channel should be closed after unregister")
	}

	// Sending to a gone connection is a no-op, not a panic.
	hub.SendTo("a", "user-id", "a")
}
