package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"educonnect-tracking/internal/handlers"
	"educonnect-tracking/internal/middleware"
	"educonnect-tracking/internal/websocket"
)

func New(
	trackingHandler *handlers.TrackingHandler,
	wsHub *websocket.Hub,
	corsOrigins string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(corsOrigins))

	// Tracking beacons fire on every tab switch, so the per-IP cap sits well
	// above any human rate.
	trackingLimiter := middleware.NewRateLimiter(300, time.Minute)

	// Health checks (root for orchestration probes, /api/tracking for the
	// platform's service registry)
	r.Get("/health", trackingHandler.Health)

	r.Route("/api/tracking", func(r chi.Router) {
		r.Get("/health", trackingHandler.Health)

		// ──── Lesson Tracking Routes ────
		r.Group(func(r chi.Router) {
			r.Use(trackingLimiter.Middleware)
			r.Post("/lesson/enter", trackingHandler.EnterLesson)
			r.Post("/lesson/exit", trackingHandler.ExitLesson)
			r.Post("/lesson/focus", trackingHandler.UpdateFocus)
			r.Get("/user/{user_id}/current", trackingHandler.GetCurrentLesson)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
