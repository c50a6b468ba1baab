package services

import (
	"context"
	"log/slog"
	"time"

	"prepdeck/repository"
)

const scheduleSweepPeriod = time.Minute

// ScheduleWorker runs periodic maintenance: marking past scheduled sessions
// as elapsed and purging expired email verification tokens.
type ScheduleWorker struct {
	repo *repository.GORMRepository
}

func NewScheduleWorker(repo *repository.GORMRepository) *ScheduleWorker {
	return &ScheduleWorker{repo: repo}
}

// Run blocks until ctx is cancelled. Callers start it in a goroutine.
func (w *ScheduleWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(scheduleSweepPeriod)
	defer ticker.Stop()

	slog.Info("Schedule worker started", "period", scheduleSweepPeriod)

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			slog.Info("Schedule worker stopped")
			return
		}
	}
}

func (w *ScheduleWorker) sweep(ctx context.Context) {
	elapsed, err := w.repo.MarkElapsedScheduledSessions(ctx, time.Now())
	if err != nil {
		slog.Error("Failed to mark elapsed scheduled sessions", "error", err)
	} else if elapsed > 0 {
		slog.Info("Marked scheduled sessions as elapsed", "count", elapsed)
	}

	purged, err := w.repo.DeleteExpiredEmailVerifications(ctx)
	if err != nil {
		slog.Error("Failed to purge expired email verifications", "error", err)
	} else if purged > 0 {
		slog.Info("Purged expired email verifications", "count", purged)
	}
}
