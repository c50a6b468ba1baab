package services

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepdeck/models"
	"prepdeck/repository"
)

type ScheduleEndpoints struct {
	repo     *repository.GORMRepository
	calendar *CalendarService
}

type CreateScheduleRequest struct {
	Title           string    `json:"title" validate:"required,max=255"`
	InterviewType   string    `json:"interview_type" validate:"required,oneof=behavioral technical system_design case_study"`
	Difficulty      int       `json:"difficulty" validate:"required,min=1,max=5"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=5,max=240"`
	Reminder        bool      `json:"reminder"`
}

func NewScheduleEndpoints(repo *repository.GORMRepository, calendar *CalendarService) *ScheduleEndpoints {
	return &ScheduleEndpoints{repo: repo, calendar: calendar}
}

func (e *ScheduleEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.Post("/", e.CreateScheduleHandler)
		r.Get("/", e.GetSchedulesHandler)
		r.Get("/{id}", e.GetScheduleHandler)
		r.Put("/{id}", e.UpdateScheduleHandler)
		r.Delete("/{id}", e.CancelScheduleHandler)
	})
}

// mirrorToCalendar attempts the external mirror. The local row is already
// written; failure here only leaves calendar_synced false.
func (e *ScheduleEndpoints) mirrorToCalendar(r *http.Request, s *models.ScheduledSession) {
	if e.calendar == nil {
		return
	}

	eventID, err := e.calendar.CreateEvent(r.Context(), s)
	if err != nil {
		slog.Warn("Calendar mirror failed", "error", err, "schedule_id", s.ID)
		return
	}

	s.CalendarEventID = eventID
	s.CalendarSynced = true
	if err := e.repo.UpdateScheduledSession(r.Context(), s); err != nil {
		slog.Error("Failed to persist calendar sync state", "error", err, "schedule_id", s.ID)
	}
}

func (e *ScheduleEndpoints) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	var req CreateScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !req.StartsAt.After(time.Now()) {
		writeError(w, http.StatusBadRequest, "starts_at must be in the future")
		return
	}

	schedule := models.ScheduledSession{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		Title:           req.Title,
		InterviewType:   req.InterviewType,
		Difficulty:      req.Difficulty,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Reminder:        req.Reminder,
		Status:          models.ScheduleUpcoming,
	}

	if err := e.repo.CreateScheduledSession(r.Context(), &schedule); err != nil {
		slog.Error("Failed to create scheduled session", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to create scheduled session")
		return
	}

	e.mirrorToCalendar(r, &schedule)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"schedule": schedule,
		"message":  "Session scheduled successfully",
	})

	slog.Info("Session scheduled",
		"schedule_id", schedule.ID,
		"user_id", user.ID,
		"starts_at", schedule.StartsAt,
		"calendar_synced", schedule.CalendarSynced)
}

func (e *ScheduleEndpoints) GetSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	schedules, err := e.repo.GetScheduledSessions(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get scheduled sessions", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get scheduled sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

func (e *ScheduleEndpoints) GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	schedule, err := e.repo.GetScheduledSessionByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scheduled session")
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Scheduled session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"schedule": schedule})
}

func (e *ScheduleEndpoints) UpdateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	schedule, err := e.repo.GetScheduledSessionByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scheduled session")
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Scheduled session not found")
		return
	}
	if schedule.Status != models.ScheduleUpcoming {
		writeError(w, http.StatusConflict, "Only upcoming sessions can be updated")
		return
	}

	var req CreateScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !req.StartsAt.After(time.Now()) {
		writeError(w, http.StatusBadRequest, "starts_at must be in the future")
		return
	}

	schedule.Title = req.Title
	schedule.InterviewType = req.InterviewType
	schedule.Difficulty = req.Difficulty
	schedule.StartsAt = req.StartsAt
	schedule.DurationMinutes = req.DurationMinutes
	schedule.Reminder = req.Reminder

	if err := e.repo.UpdateScheduledSession(r.Context(), schedule); err != nil {
		slog.Error("Failed to update scheduled session", "error", err, "schedule_id", schedule.ID)
		writeError(w, http.StatusInternalServerError, "Failed to update scheduled session")
		return
	}

	// Re-mirror: delete the old event and create a fresh one.
	if e.calendar != nil && schedule.CalendarEventID != "" {
		if err := e.calendar.DeleteEvent(r.Context(), schedule.CalendarEventID); err != nil {
			slog.Warn("Failed to delete stale calendar event", "error", err, "schedule_id", schedule.ID)
		}
		schedule.CalendarEventID = ""
		schedule.CalendarSynced = false
	}
	e.mirrorToCalendar(r, schedule)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedule": schedule,
		"message":  "Scheduled session updated",
	})
}

func (e *ScheduleEndpoints) CancelScheduleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	schedule, err := e.repo.GetScheduledSessionByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scheduled session")
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Scheduled session not found")
		return
	}

	// A second delete on a cancelled entry removes it from the list.
	if schedule.Status == models.ScheduleCancelled {
		if err := e.repo.DeleteScheduledSession(r.Context(), schedule.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete scheduled session")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Scheduled session deleted",
		})
		return
	}

	schedule.Status = models.ScheduleCancelled
	if err := e.repo.UpdateScheduledSession(r.Context(), schedule); err != nil {
		slog.Error("Failed to cancel scheduled session", "error", err, "schedule_id", schedule.ID)
		writeError(w, http.StatusInternalServerError, "Failed to cancel scheduled session")
		return
	}

	if e.calendar != nil && schedule.CalendarEventID != "" {
		if err := e.calendar.DeleteEvent(r.Context(), schedule.CalendarEventID); err != nil {
			slog.Warn("Failed to delete calendar event", "error", err, "schedule_id", schedule.ID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Scheduled session cancelled",
	})

	slog.Info("Scheduled session cancelled", "schedule_id", schedule.ID, "user_id", user.ID)
}
