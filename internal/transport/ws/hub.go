package ws

import (
	"encoding/json"
	"log"
	"sync"

	"pairdesk/internal/registry"
)

// Message is the WebSocket envelope format, inbound and outbound.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents a live WebSocket connection.
type Connection struct {
	ID   string
	Send chan []byte
}

// Hub is the delivery primitive: it tracks live connections and writes
// events to one connection or to a room's membership. Room membership
// itself is the registry's; the hub resolves it at send time, so a
// broadcast goes to whatever the membership snapshot is at that moment.
// Hub implements service.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	reg *registry.Registry
}

// NewHub creates a hub that resolves room membership from the registry.
func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		conns: make(map[string]*Connection),
		reg:   reg,
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()
	log.Printf("connection %s registered", conn.ID)
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	if existing, ok := h.conns[conn.ID]; ok && existing == conn {
		delete(h.conns, conn.ID)
		close(conn.Send)
		log.Printf("connection %s unregistered", conn.ID)
	}
	h.mu.Unlock()
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SendTo delivers an event to a single connection.
func (h *Hub) SendTo(connID string, event string, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.push(connID, data)
}

// BroadcastToRoom delivers an event to every member of the room except the
// excluded connection.
func (h *Hub) BroadcastToRoom(roomKey string, event string, payload interface{}, exclude string) {
	data, err := encode(event, payload)
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return
	}

	members := h.reg.Members(roomKey)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if id == exclude {
			continue
		}
		h.push(id, data)
	}
}

// push writes to a connection's send buffer; callers hold h.mu. A full
// buffer drops the message rather than blocking delivery to others.
func (h *Hub) push(connID string, data []byte) {
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Printf("connection %s send buffer full, dropping message", connID)
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: event, Payload: data})
}
