package services

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepdeck/models"
	"prepdeck/repository"
)

type SessionEndpoints struct {
	repo    *repository.GORMRepository
	engine  *AdaptiveEngine
	coachAI *CoachAIService
	tracker *SessionTracker

	// Prevents duplicate feedback generation when the same session is
	// requested concurrently.
	feedbackMutexes sync.Map
}

type CreateSessionRequest struct {
	InterviewType string  `json:"interview_type" validate:"required,oneof=behavioral technical system_design case_study"`
	Difficulty    int     `json:"difficulty" validate:"required,min=1,max=5"`
	BankID        *string `json:"bank_id,omitempty" validate:"omitempty,uuid"`
}

type CompleteSessionRequest struct {
	Scores []ScoreEntry `json:"scores" validate:"omitempty,dive"`
}

type ScoreEntry struct {
	Metric string  `json:"metric" validate:"required,max=100"`
	Score  float64 `json:"score" validate:"min=0,max=100"`
	Weight float64 `json:"weight" validate:"min=0,max=10"`
}

type BulkDeleteSessionsRequest struct {
	SessionIDs []string `json:"session_ids" validate:"required,min=1,dive,uuid"`
}

func NewSessionEndpoints(repo *repository.GORMRepository, engine *AdaptiveEngine, coachAI *CoachAIService, tracker *SessionTracker) *SessionEndpoints {
	return &SessionEndpoints{repo: repo, engine: engine, coachAI: coachAI, tracker: tracker}
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", e.CreateSessionHandler)
		r.Get("/", e.GetSessionsHandler)
		r.Delete("/", e.BulkDeleteSessionsHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Delete("/{id}", e.DeleteSessionHandler)
		r.Post("/{id}/complete", e.CompleteSessionHandler)
		r.Post("/{id}/abandon", e.AbandonSessionHandler)
		r.Get("/{id}/feedback", e.GetFeedbackHandler)
	})
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.BankID != nil {
		bank, err := e.repo.GetQuestionBankByID(r.Context(), *req.BankID, user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to verify question bank")
			return
		}
		if bank == nil {
			writeError(w, http.StatusNotFound, "Question bank not found")
			return
		}
		if bank.InterviewType != req.InterviewType {
			writeError(w, http.StatusBadRequest, "Question bank does not match the requested interview type")
			return
		}
	}

	session := models.PracticeSession{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		BankID:        req.BankID,
		InterviewType: req.InterviewType,
		Difficulty:    req.Difficulty,
		Status:        models.SessionActive,
		StartedAt:     time.Now(),
	}

	if err := e.repo.CreatePracticeSession(r.Context(), &session); err != nil {
		slog.Error("Failed to create practice session", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to create practice session")
		return
	}

	// The open recommendation, if any, is resolved against this choice.
	rec, matched, err := e.engine.ResolveWithChoice(r.Context(), user.ID, req.InterviewType, req.Difficulty)
	if err != nil {
		slog.Error("Failed to resolve recommendation", "error", err, "user_id", user.ID)
	}

	if e.tracker != nil {
		e.tracker.Track(session.ID, user.ID)
	}

	response := map[string]interface{}{
		"session": session,
		"message": "Practice session started",
	}
	if rec != nil {
		response["resolved_recommendation"] = map[string]interface{}{
			"id":      rec.ID,
			"rule":    rec.Rule,
			"matched": matched,
		}
	}

	writeJSON(w, http.StatusCreated, response)

	slog.Info("Practice session created",
		"session_id", session.ID,
		"user_id", user.ID,
		"interview_type", session.InterviewType,
		"difficulty", session.Difficulty)
}

func (e *SessionEndpoints) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessions, err := e.repo.GetPracticeSessions(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get practice sessions", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get practice sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		slog.Error("Failed to get practice session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Practice session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// CompleteSessionHandler finalizes a session: stores scores, updates the
// adaptive profile, and issues a fresh recommendation.
func (e *SessionEndpoints) CompleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Practice session not found")
		return
	}
	if session.Status != models.SessionActive {
		writeError(w, http.StatusConflict, "Practice session is already finished")
		return
	}

	var req CompleteSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	now := time.Now()
	session.Status = models.SessionCompleted
	session.EndedAt = &now
	session.Duration = int(now.Sub(session.StartedAt).Seconds())

	if err := e.repo.UpdatePracticeSession(r.Context(), session); err != nil {
		slog.Error("Failed to complete practice session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to complete practice session")
		return
	}

	if e.tracker != nil {
		e.tracker.Untrack(session.ID)
	}

	scores := make([]models.PerformanceScore, 0, len(req.Scores))
	for _, entry := range req.Scores {
		score := models.PerformanceScore{
			ID:        uuid.New().String(),
			SessionID: session.ID,
			Metric:    entry.Metric,
			Score:     entry.Score,
			MaxScore:  100,
			Weight:    entry.Weight,
		}
		if score.Weight == 0 {
			score.Weight = 1
		}
		if err := e.repo.CreatePerformanceScore(r.Context(), &score); err != nil {
			slog.Error("Failed to store performance score", "error", err, "session_id", session.ID, "metric", entry.Metric)
			continue
		}
		scores = append(scores, score)
	}

	overall := models.WeightedAverage(scores)
	if err := e.engine.RecordCompletedSession(r.Context(), session, scores); err != nil {
		slog.Error("Failed to update performance profile", "error", err, "session_id", session.ID)
	}

	rec, err := e.engine.Recommend(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to generate recommendation", "error", err, "user_id", user.ID)
	}

	response := map[string]interface{}{
		"session":       session,
		"overall_score": overall,
		"message":       "Practice session completed",
	}
	if rec != nil {
		response["recommendation"] = rec
	}

	writeJSON(w, http.StatusOK, response)

	slog.Info("Practice session completed",
		"session_id", session.ID,
		"user_id", user.ID,
		"overall_score", overall,
		"duration", session.Duration)
}

func (e *SessionEndpoints) AbandonSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Practice session not found")
		return
	}
	if session.Status != models.SessionActive {
		writeError(w, http.StatusConflict, "Practice session is already finished")
		return
	}

	now := time.Now()
	session.Status = models.SessionAbandoned
	session.EndedAt = &now
	session.Duration = int(now.Sub(session.StartedAt).Seconds())

	if err := e.repo.UpdatePracticeSession(r.Context(), session); err != nil {
		slog.Error("Failed to abandon practice session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to abandon practice session")
		return
	}

	if e.tracker != nil {
		e.tracker.Untrack(session.ID)
	}

	if err := e.engine.RecordAbandonedSession(r.Context(), session); err != nil {
		slog.Error("Failed to record abandoned session", "error", err, "session_id", session.ID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"message": "Practice session abandoned",
	})
}

func (e *SessionEndpoints) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Practice session not found")
		return
	}

	if err := e.repo.DeletePracticeSession(r.Context(), sessionID); err != nil {
		slog.Error("Failed to delete practice session", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to delete practice session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Practice session deleted successfully",
	})

	slog.Info("Practice session deleted", "session_id", sessionID, "user_id", user.ID)
}

func (e *SessionEndpoints) BulkDeleteSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	var req BulkDeleteSessionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Ownership check before deletion; skip IDs that don't belong to the user.
	owned := make([]string, 0, len(req.SessionIDs))
	for _, id := range req.SessionIDs {
		session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), id, user.ID)
		if err != nil {
			continue
		}
		if session != nil {
			owned = append(owned, id)
		}
	}

	deleted, err := e.repo.BulkDeletePracticeSessions(r.Context(), owned)
	if err != nil {
		slog.Error("Failed to bulk delete practice sessions", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to delete practice sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"message": "Practice sessions deleted successfully",
	})

	slog.Info("Practice sessions bulk deleted", "user_id", user.ID, "count", deleted)
}

// GetFeedbackHandler returns stored feedback for a completed session,
// generating it on first request.
func (e *SessionEndpoints) GetFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetPracticeSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get practice session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Practice session not found")
		return
	}
	if session.Status == models.SessionActive {
		writeError(w, http.StatusConflict, "Practice session is still active")
		return
	}

	if session.Feedback != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": session.Feedback})
		return
	}

	// One generation per session at a time.
	mutexAny, _ := e.feedbackMutexes.LoadOrStore(sessionID, &sync.Mutex{})
	mutex := mutexAny.(*sync.Mutex)
	mutex.Lock()
	defer func() {
		mutex.Unlock()
		e.feedbackMutexes.Delete(sessionID)
	}()

	// A concurrent request may have generated it while we waited.
	existing, err := e.repo.GetSessionFeedback(r.Context(), sessionID)
	if err == nil && existing != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": existing})
		return
	}

	// Scores stored between the session load and the lock still count as prior.
	priorScores, err := e.repo.GetPerformanceScores(r.Context(), sessionID)
	if err != nil {
		priorScores = session.PerformanceScores
	}

	if e.coachAI == nil {
		writeError(w, http.StatusInternalServerError, "AI service not configured")
		return
	}

	result, err := e.coachAI.GenerateFeedback(r.Context(), session)
	if err != nil {
		slog.Error("Failed to generate feedback", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to generate feedback")
		return
	}

	scores := make([]models.PerformanceScore, 0, len(result.Scores))
	for _, s := range result.Scores {
		score := models.PerformanceScore{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Metric:    s.Metric,
			Score:     s.Score,
			MaxScore:  100,
			Weight:    s.Weight,
		}
		if score.Weight == 0 {
			score.Weight = 1
		}
		if err := e.repo.CreatePerformanceScore(r.Context(), &score); err != nil {
			slog.Error("Failed to store generated score", "error", err, "session_id", sessionID, "metric", s.Metric)
			continue
		}
		scores = append(scores, score)
	}

	feedback := models.SessionFeedback{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		Summary:         result.Summary,
		Strengths:       result.Strengths,
		Weaknesses:      result.Weaknesses,
		Recommendations: result.Recommendations,
		OverallScore:    models.WeightedAverage(scores),
	}

	if err := e.repo.CreateSessionFeedback(r.Context(), &feedback); err != nil {
		slog.Error("Failed to store feedback", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to store feedback")
		return
	}

	// Generated scores feed the adaptive profile when the session completed
	// without explicit scores; this is the first profile update for it.
	if session.Status == models.SessionCompleted && len(priorScores) == 0 {
		if err := e.engine.RecordCompletedSession(r.Context(), session, scores); err != nil {
			slog.Error("Failed to update performance profile from feedback", "error", err, "session_id", sessionID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": feedback})

	slog.Info("Session feedback generated", "session_id", sessionID, "overall_score", feedback.OverallScore)
}
