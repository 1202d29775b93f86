package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"pairdesk/internal/cache"
	"pairdesk/internal/registry"
	"pairdesk/internal/repository"
	"pairdesk/internal/service"
	"pairdesk/internal/transport/rest/handler"
	"pairdesk/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	RoomRepo         repository.RoomRepository
	RoomCache        cache.RoomCache
	Registry         *registry.Registry
	RoomService      *service.RoomService
	SignalingService *service.SignalingService
	Hub              *ws.Hub
}

// NewRouter creates the router with the HTTP surface and the WebSocket
// endpoint.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.RoomRepo, c.RoomCache, c.Registry, c.Hub)
	wsHandler := ws.NewHandler(c.Hub, c.RoomService, c.SignalingService)

	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", roomHandler.Health).Methods("GET")
	r.HandleFunc("/api/room/{roomKey}", roomHandler.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
