package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"prepdeck/models"
)

// Scheduled session operations
func (r *GORMRepository) CreateScheduledSession(ctx context.Context, s *models.ScheduledSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		slog.Error("Failed to create scheduled session", "error", err, "user_id", s.UserID)
		return err
	}
	slog.Info("Scheduled session created", "scheduled_id", s.ID, "user_id", s.UserID, "starts_at", s.StartsAt)
	return nil
}

func (r *GORMRepository) GetScheduledSessions(ctx context.Context, userID string) ([]models.ScheduledSession, error) {
	var sessions []models.ScheduledSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("starts_at").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get scheduled sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) GetScheduledSessionByID(ctx context.Context, id string, userID string) (*models.ScheduledSession, error) {
	var session models.ScheduledSession
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get scheduled session", "error", err, "scheduled_id", id, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) UpdateScheduledSession(ctx context.Context, s *models.ScheduledSession) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		slog.Error("Failed to update scheduled session", "error", err, "scheduled_id", s.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteScheduledSession(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ScheduledSession{}).Error; err != nil {
		slog.Error("Failed to delete scheduled session", "error", err, "scheduled_id", id)
		return err
	}
	slog.Info("Scheduled session deleted", "scheduled_id", id)
	return nil
}

// MarkElapsedScheduledSessions flips past-due upcoming sessions to elapsed.
// Used by the background worker.
func (r *GORMRepository) MarkElapsedScheduledSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ScheduledSession{}).
		Where("status = ? AND starts_at < ?", "upcoming", now).
		Update("status", "elapsed")
	if res.Error != nil {
		slog.Error("Failed to mark elapsed scheduled sessions", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
