package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pairdesk/internal/cache"
	"pairdesk/internal/config"
	"pairdesk/internal/registry"
	"pairdesk/internal/repository"
	"pairdesk/internal/service"
	"pairdesk/internal/transport/rest"
	"pairdesk/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize stores and presence
	roomRepo, err := repository.NewRoomRepository(ctx, db)
	if err != nil {
		log.Fatal("Failed to create room index:", err)
	}
	roomCache := cache.NewRoomCache(rdb)
	reg := registry.New()

	// Initialize transport and services
	hub := ws.NewHub(reg)
	roomSvc := service.NewRoomService(roomRepo, reg, hub)
	signalSvc := service.NewSignalingService(hub)

	// Background room expiry
	sweeper := service.NewSweeper(roomRepo, cfg.SweepInterval, cfg.Retention)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	go sweeper.Run(sweepCtx)

	container := &rest.Container{
		RoomRepo:         roomRepo,
		RoomCache:        roomCache,
		Registry:         reg,
		RoomService:      roomSvc,
		SignalingService: signalSvc,
		Hub:              hub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  GET /api/health")
		log.Println("  GET /api/room/{roomKey}")
		log.Println("  WS  /ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
