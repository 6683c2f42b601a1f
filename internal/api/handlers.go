package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pcwl/territory/internal/common"
	"pcwl/territory/internal/logging"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// LeaderboardHandler handles GET /api/v1/leaderboard?limit=N
func (h *Handlers) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		board, err := h.deps.Services.Leaderboard.Leaderboard(r.Context(), limit)
		if err != nil {
			respondWithAppError(w, err)
			return
		}

		logging.Debug("Leaderboard served", "limit", limit, "response_time", common.GetResponseTime(start))
		respondWithSuccess(w, http.StatusOK, board)
	}
}

// DistrictStrategyHandler handles GET /api/v1/districts/strategy?per_home=N
func (h *Handlers) DistrictStrategyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perHome, _ := strconv.Atoi(r.URL.Query().Get("per_home"))

		strategy, err := h.deps.Services.Leaderboard.DistrictStrategy(r.Context(), perHome)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, strategy)
	}
}

// PlayerInsightsHandler handles GET /api/v1/players/{id}/insights
func (h *Handlers) PlayerInsightsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id == 0 {
			respondWithError(w, http.StatusBadRequest, "invalid player id")
			return
		}

		insights, err := h.deps.Services.Insights.PlayerInsights(r.Context(), uint(id))
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, insights)
	}
}
