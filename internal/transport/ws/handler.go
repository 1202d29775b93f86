package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pairdesk/internal/model"
	"pairdesk/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // file contents travel in-band
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades WebSocket connections and dispatches their events to
// the room and signaling services.
type Handler struct {
	hub     *Hub
	rooms   *service.RoomService
	signals *service.SignalingService
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, rooms *service.RoomService, signals *service.SignalingService) *Handler {
	return &Handler{
		hub:     hub,
		rooms:   rooms,
		signals: signals,
	}
}

// ServeWS handles GET /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}
	sess := &model.Session{ConnectionID: conn.ID}

	h.hub.Register(conn)
	h.hub.SendTo(conn.ID, service.EventUserID, conn.ID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, sess)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, sess *model.Session) {
	defer func() {
		h.rooms.Disconnect(sess)
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed envelope, skip
		}
		h.dispatch(sess, msg)
	}
}

func (h *Handler) dispatch(sess *model.Session, msg Message) {
	ctx := context.Background()

	switch msg.Type {
	case service.EventJoinRoom:
		// The room key arrives either as a bare string or wrapped.
		var roomKey string
		if err := json.Unmarshal(msg.Payload, &roomKey); err != nil {
			var p struct {
				RoomKey string `json:"roomKey"`
			}
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return
			}
			roomKey = p.RoomKey
		}
		h.rooms.Join(ctx, sess, roomKey)

	case service.EventFileCreate:
		var file model.File
		if json.Unmarshal(msg.Payload, &file) != nil {
			return
		}
		h.rooms.CreateFile(ctx, sess, file)

	case service.EventFileUpdate:
		var upd model.FileUpdate
		if json.Unmarshal(msg.Payload, &upd) != nil {
			return
		}
		h.rooms.UpdateFile(ctx, sess, upd)

	case service.EventFileRename:
		var ren model.FileRename
		if json.Unmarshal(msg.Payload, &ren) != nil {
			return
		}
		h.rooms.RenameFile(ctx, sess, ren)

	case service.EventFileDelete:
		var del model.FileDelete
		if json.Unmarshal(msg.Payload, &del) != nil {
			return
		}
		h.rooms.DeleteFile(ctx, sess, del)

	case service.EventNoteCreate:
		var note model.Note
		if json.Unmarshal(msg.Payload, &note) != nil {
			return
		}
		h.rooms.CreateNote(ctx, sess, note)

	case service.EventNoteUpdate:
		var upd model.NoteUpdate
		if json.Unmarshal(msg.Payload, &upd) != nil {
			return
		}
		h.rooms.UpdateNote(ctx, sess, upd)

	case service.EventNoteRename:
		var ren model.NoteRename
		if json.Unmarshal(msg.Payload, &ren) != nil {
			return
		}
		h.rooms.RenameNote(ctx, sess, ren)

	case service.EventNoteDelete:
		var del model.NoteDelete
		if json.Unmarshal(msg.Payload, &del) != nil {
			return
		}
		h.rooms.DeleteNote(ctx, sess, del)

	case service.EventChatMessage:
		h.rooms.Chat(sess, msg.Payload)

	case service.EventTypingStart:
		h.rooms.TypingStart(sess)

	case service.EventTypingStop:
		h.rooms.TypingStop(sess)

	case service.EventCallRequest, service.EventCallAccepted, service.EventCallRejected,
		service.EventCallEnded, service.EventOffer, service.EventAnswer,
		service.EventICECandidate, service.EventVideoToggle, service.EventAudioToggle,
		service.EventScreenShareToggle:
		h.signals.Relay(sess, msg.Type, msg.Payload)

	default:
		// Unknown event types are dropped.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
