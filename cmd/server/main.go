package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oguzkopan/careerrougelike-sub002/internal/cache"
	"github.com/oguzkopan/careerrougelike-sub002/internal/config"
	"github.com/oguzkopan/careerrougelike-sub002/internal/repository"
	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
	"github.com/oguzkopan/careerrougelike-sub002/internal/transport/rest"
	"github.com/oguzkopan/careerrougelike-sub002/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Discussion model: %s", aiConfig.Model)
	if aiConfig.IsEnabled() {
		log.Println("  API Key:          configured ✓")
	} else {
		log.Println("  API Key:          NOT SET (using mock discussion generator)")
	}

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

	if err := repository.EnsureMessageIndexes(ctx, db); err != nil {
		log.Fatal("Failed to ensure message indexes:", err)
	}

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	meetingRepo := repository.NewMeetingRepo(db)
	messageRepo := repository.NewMessageRepo(db)

	// Initialize caches
	turnCache := cache.NewTurnStateCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	generator := service.NewDiscussionService(aiConfig)
	scorer := service.NewScorerService()
	meetingSvc := service.NewMeetingService(meetingRepo, messageRepo, turnCache, generator, scorer)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	meetingSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		MeetingService: meetingSvc,
		WSHub:          wsHub,
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
		log.Println("  POST /v1/auth/session")
		log.Println("  POST /v1/meetings")
		log.Println("  GET  /v1/meetings/{id}")
		log.Println("  POST /v1/meetings/{id}/join")
		log.Println("  POST /v1/meetings/{id}/respond")
		log.Println("  POST /v1/meetings/{id}/leave")
		log.Println("  GET  /v1/meetings/{id}/messages")
		log.Println("  WS   /v1/ws/meetings/{id}/observe")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
