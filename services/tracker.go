package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"prepdeck/models"
	"prepdeck/repository"
)

const (
	sessionIdleLimit   = 5 * time.Minute
	trackerSweepPeriod = 30 * time.Second
)

// SessionTracker watches active practice sessions and marks sessions with no
// activity as abandoned. Abandonment feeds the adaptive engine's counters.
type SessionTracker struct {
	repo   *repository.GORMRepository
	engine *AdaptiveEngine

	active map[string]*trackedSession
	mutex  sync.RWMutex
	stop   chan struct{}
}

type trackedSession struct {
	SessionID    string
	UserID       string
	LastActivity time.Time
}

func NewSessionTracker(repo *repository.GORMRepository, engine *AdaptiveEngine) *SessionTracker {
	t := &SessionTracker{
		repo:   repo,
		engine: engine,
		active: make(map[string]*trackedSession),
		stop:   make(chan struct{}),
	}

	go t.run()

	return t
}

func (t *SessionTracker) Track(sessionID, userID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.active[sessionID] = &trackedSession{
		SessionID:    sessionID,
		UserID:       userID,
		LastActivity: time.Now(),
	}

	slog.Info("Session registered for idle tracking", "session_id", sessionID, "user_id", userID)
}

func (t *SessionTracker) Touch(sessionID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if s, exists := t.active[sessionID]; exists {
		s.LastActivity = time.Now()
	}
}

func (t *SessionTracker) Untrack(sessionID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.active[sessionID]; exists {
		delete(t.active, sessionID)
		slog.Info("Session removed from idle tracking", "session_id", sessionID)
	}
}

func (t *SessionTracker) Stop() {
	close(t.stop)
}

func (t *SessionTracker) run() {
	ticker := time.NewTicker(trackerSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.stop:
			return
		}
	}
}

func (t *SessionTracker) sweep() {
	t.mutex.RLock()
	now := time.Now()
	var idle []*trackedSession
	for _, s := range t.active {
		if now.Sub(s.LastActivity) > sessionIdleLimit {
			idle = append(idle, s)
		}
	}
	t.mutex.RUnlock()

	for _, s := range idle {
		slog.Info("Session idle limit reached, abandoning",
			"session_id", s.SessionID,
			"inactive_duration", now.Sub(s.LastActivity))
		t.abandon(s)
	}
}

func (t *SessionTracker) abandon(tracked *trackedSession) {
	ctx := context.Background()

	session, err := t.repo.GetPracticeSessionWithDetails(ctx, tracked.SessionID, tracked.UserID)
	if err != nil || session == nil {
		slog.Error("Failed to load idle session", "session_id", tracked.SessionID, "error", err)
		t.Untrack(tracked.SessionID)
		return
	}

	if session.Status == models.SessionActive {
		now := time.Now()
		session.Status = models.SessionAbandoned
		session.EndedAt = &now
		session.Duration = int(now.Sub(session.StartedAt).Seconds())

		if err := t.repo.UpdatePracticeSession(ctx, session); err != nil {
			slog.Error("Failed to abandon idle session", "session_id", session.ID, "error", err)
			return
		}

		if err := t.engine.RecordAbandonedSession(ctx, session); err != nil {
			slog.Error("Failed to record abandoned session", "session_id", session.ID, "error", err)
		}
	}

	t.Untrack(tracked.SessionID)
}
