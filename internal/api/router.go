package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/xgrabbot/internal/api/handler"
	mw "github.com/iconidentify/xgrabbot/internal/api/middleware"
)

// NewRouter creates the operator HTTP router.
func NewRouter(
	healthHandler *handler.HealthHandler,
	statsHandler *handler.StatsHandler,
	resolveHandler *handler.ResolveHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(2 * time.Minute))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Get("/stats", statsHandler.Get)
		r.Post("/stats/reset", statsHandler.Reset)
		r.Get("/resolve", resolveHandler.Resolve)
	})

	return r
}
