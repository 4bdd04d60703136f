package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"educonnect-tracking/internal/config"
	"educonnect-tracking/internal/database"
	"educonnect-tracking/internal/handlers"
	"educonnect-tracking/internal/repository"
	"educonnect-tracking/internal/router"
	"educonnect-tracking/internal/services"
	"educonnect-tracking/internal/websocket"
)

func main() {
	log.Println("🚀 Starting EduConnect Tracking Service...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Initialize Lesson Content Store (optional) ────
	// Enrichment is a nice-to-have: a missing or unreachable content
	// database never stops the tracker.
	var lessonRepo *repository.LessonRepo
	if cfg.DatabaseURL == "" {
		log.Println("• DATABASE_URL not set, lesson enrichment disabled")
	} else if pool, poolErr := database.NewPostgresPool(cfg.DatabaseURL); poolErr != nil {
		log.Printf("✗ PostgreSQL connection failed, lesson enrichment disabled: %v", poolErr)
	} else {
		defer pool.Close()
		lessonRepo = repository.NewLessonRepo(pool)
		log.Println("✓ PostgreSQL connected (lesson enrichment)")
	}

	// ──── Initialize Store & Services ────
	store := repository.NewRedisTrackingStore(redisClients.Store, time.Duration(cfg.RecordTTLHours)*time.Hour)
	events := services.NewEventPublisher(redisClients.Store)
	trackingService := services.NewTrackingService(store, events)

	sweeper := services.NewStaleTabSweeper(store, trackingService, time.Duration(cfg.StaleTabHours)*time.Hour)
	sweeper.Start()
	log.Println("✓ Stale tab sweeper started")

	// ──── Initialize Handlers ────
	var trackingHandler *handlers.TrackingHandler
	if lessonRepo != nil {
		trackingHandler = handlers.NewTrackingHandler(trackingService, lessonRepo)
	} else {
		trackingHandler = handlers.NewTrackingHandler(trackingService, nil)
	}

	// ──── Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Start HTTP Server ────
	r := router.New(trackingHandler, wsHub, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sweeper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Tracking Service ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/tracking", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/tracking/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
