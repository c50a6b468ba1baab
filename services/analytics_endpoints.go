package services

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepdeck/repository"
)

type AnalyticsEndpoints struct {
	analytics *repository.AnalyticsRepository
	repo      *repository.GORMRepository
}

func NewAnalyticsEndpoints(analytics *repository.AnalyticsRepository, repo *repository.GORMRepository) *AnalyticsEndpoints {
	return &AnalyticsEndpoints{analytics: analytics, repo: repo}
}

func (e *AnalyticsEndpoints) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/dashboard", e.DashboardHandler)
}

// DashboardHandler aggregates the user's practice history into a single
// overview payload.
func (e *AnalyticsEndpoints) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	counts, err := e.analytics.SessionCounts(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to load session counts", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	averages, err := e.analytics.TypeAverages(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to load type averages", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	streak, err := e.analytics.PracticeStreakDays(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to compute practice streak", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	resolved, matched, err := e.repo.RecommendationAccuracy(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to compute recommendation accuracy", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	var accuracy float64
	if resolved > 0 {
		accuracy = float64(matched) / float64(resolved)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_counts": counts,
		"type_averages":  averages,
		"streak_days":    streak,
		"recommendation_accuracy": map[string]interface{}{
			"resolved": resolved,
			"matched":  matched,
			"rate":     accuracy,
		},
	})
}
