package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pairdesk/internal/cache"
	"pairdesk/internal/registry"
	"pairdesk/internal/repository"
)

// ConnectionCounter reports the number of live WebSocket connections.
type ConnectionCounter interface {
	ConnectionCount() int
}

// RoomHandler serves the health and room metadata endpoints.
type RoomHandler struct {
	repo  repository.RoomRepository
	cache cache.RoomCache
	reg   *registry.Registry
	conns ConnectionCounter
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(repo repository.RoomRepository, roomCache cache.RoomCache, reg *registry.Registry, conns ConnectionCounter) *RoomHandler {
	return &RoomHandler{
		repo:  repo,
		cache: roomCache,
		reg:   reg,
		conns: conns,
	}
}

// Health handles GET /api/health.
func (h *RoomHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"rooms":       h.reg.RoomCount(),
		"connections": h.conns.ConnectionCount(),
	})
}

// RoomMetaResponse is the metadata payload for the room lookup.
type RoomMetaResponse struct {
	RoomKey      string    `json:"roomKey"`
	FileCount    int       `json:"fileCount"`
	NoteCount    int       `json:"noteCount"`
	UserCount    int       `json:"userCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Get handles GET /api/room/{roomKey}. Document-derived metadata is served
// through the cache; the live user count comes from the registry every time.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomKey := mux.Vars(r)["roomKey"]
	ctx := r.Context()

	meta, err := h.cache.GetMeta(ctx, roomKey)
	if err != nil {
		// Cache trouble is not an outage; fall through to the store.
		log.Printf("room cache read %s: %v", roomKey, err)
		meta = nil
	}

	if meta == nil {
		room, err := h.repo.Read(ctx, roomKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if room == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		meta = room.Meta()
		if err := h.cache.SetMeta(ctx, roomKey, meta); err != nil {
			log.Printf("room cache write %s: %v", roomKey, err)
		}
	}

	writeJSON(w, http.StatusOK, RoomMetaResponse{
		RoomKey:      meta.RoomKey,
		FileCount:    meta.FileCount,
		NoteCount:    meta.NoteCount,
		UserCount:    len(h.reg.Members(roomKey)),
		CreatedAt:    meta.CreatedAt,
		LastActivity: meta.LastActivity,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
