package routes

import (
	"github.com/go-chi/chi/v5"

	"pcwl/territory/internal/api"
	"pcwl/territory/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, limiter *middleware.RateLimiter) {
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware)

		v1.Get("/leaderboard", handlers.LeaderboardHandler())
		v1.Get("/districts/strategy", handlers.DistrictStrategyHandler())
		v1.Get("/players/{id}/insights", handlers.PlayerInsightsHandler())
	})
}
