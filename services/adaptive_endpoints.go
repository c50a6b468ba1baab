package services

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepdeck/repository"
)

type AdaptiveEndpoints struct {
	repo   *repository.GORMRepository
	engine *AdaptiveEngine
}

func NewAdaptiveEndpoints(repo *repository.GORMRepository, engine *AdaptiveEngine) *AdaptiveEndpoints {
	return &AdaptiveEndpoints{repo: repo, engine: engine}
}

type RecordChoiceRequest struct {
	InterviewType string `json:"interview_type" validate:"required,oneof=behavioral technical system_design case_study"`
	Difficulty    int    `json:"difficulty" validate:"required,min=1,max=5"`
}

func (e *AdaptiveEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/adaptive", func(r chi.Router) {
		r.Get("/config", e.GetConfigHandler)
		r.Get("/profiles", e.GetProfilesHandler)
		r.Get("/recommendation", e.GetRecommendationHandler)
		r.Post("/choice", e.RecordChoiceHandler)
		r.Get("/accuracy", e.GetAccuracyHandler)
	})
}

func (e *AdaptiveEndpoints) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg := e.engine.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mastery_threshold":  cfg.MasteryThreshold,
		"struggle_threshold": cfg.StruggleThreshold,
		"stale_days":         cfg.StaleDays,
		"min_sessions":       cfg.MinSessions,
	})
}

func (e *AdaptiveEndpoints) GetProfilesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	profiles, err := e.repo.GetPerformanceProfiles(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get performance profiles", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get performance profiles")
		return
	}

	views := make([]map[string]interface{}, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		views = append(views, map[string]interface{}{
			"profile": p,
			"trend":   p.Trend(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": views,
		"count":    len(views),
	})
}

// GetRecommendationHandler returns the open recommendation, generating a
// fresh one when none is pending.
func (e *AdaptiveEndpoints) GetRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	rec, err := e.repo.GetOpenRecommendation(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get recommendation", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get recommendation")
		return
	}

	if rec == nil {
		rec, err = e.engine.Recommend(r.Context(), user.ID)
		if err != nil {
			slog.Error("Failed to generate recommendation", "error", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "Failed to generate recommendation")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendation": rec})
}

// RecordChoiceHandler resolves the open recommendation against a choice the
// user made outside of session creation (e.g. when scheduling ahead).
func (e *AdaptiveEndpoints) RecordChoiceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	var req RecordChoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec, matched, err := e.engine.ResolveWithChoice(r.Context(), user.ID, req.InterviewType, req.Difficulty)
	if err != nil {
		slog.Error("Failed to record choice", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to record choice")
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No open recommendation to resolve",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendation_id": rec.ID,
		"rule":              rec.Rule,
		"matched":           matched,
	})
}

func (e *AdaptiveEndpoints) GetAccuracyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	resolved, matched, err := e.repo.RecommendationAccuracy(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to compute recommendation accuracy", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to compute recommendation accuracy")
		return
	}

	var rate float64
	if resolved > 0 {
		rate = float64(matched) / float64(resolved)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resolved": resolved,
		"matched":  matched,
		"rate":     rate,
	})
}
