package repository

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"prepdeck/models"
)

// Practice session operations
func (r *GORMRepository) CreatePracticeSession(ctx context.Context, session *models.PracticeSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create practice session", "error", err)
		return err
	}
	slog.Info("Practice session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

func (r *GORMRepository) GetPracticeSessions(ctx context.Context, userID string) ([]models.PracticeSession, error) {
	var sessions []models.PracticeSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get practice sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) GetPracticeSessionWithDetails(ctx context.Context, sessionID string, userID string) (*models.PracticeSession, error) {
	var session models.PracticeSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Preload("Bank").
		Preload("Transcripts").
		Preload("Feedback").
		Preload("PerformanceScores").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get practice session", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) UpdatePracticeSession(ctx context.Context, session *models.PracticeSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		slog.Error("Failed to update practice session", "error", err, "session_id", session.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeletePracticeSession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&models.PracticeSession{}).Error; err != nil {
		slog.Error("Failed to delete practice session", "error", err, "session_id", sessionID)
		return err
	}
	slog.Info("Practice session deleted", "session_id", sessionID)
	return nil
}

func (r *GORMRepository) BulkDeletePracticeSessions(ctx context.Context, sessionIDs []string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id IN ?", sessionIDs).Delete(&models.PracticeSession{})
	if res.Error != nil {
		slog.Error("Failed to bulk delete practice sessions", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Transcript operations
func (r *GORMRepository) CreateSessionTurn(ctx context.Context, turn *models.SessionTurn) error {
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		slog.Error("Failed to create session turn", "error", err, "session_id", turn.SessionID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetSessionTurns(ctx context.Context, sessionID string) ([]models.SessionTurn, error) {
	var turns []models.SessionTurn
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("turn_order").Find(&turns).Error
	if err != nil {
		slog.Error("Failed to get session turns", "error", err, "session_id", sessionID)
		return nil, err
	}
	return turns, nil
}

// Feedback operations
func (r *GORMRepository) CreateSessionFeedback(ctx context.Context, feedback *models.SessionFeedback) error {
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		slog.Error("Failed to create session feedback", "error", err, "session_id", feedback.SessionID)
		return err
	}
	slog.Info("Session feedback created", "feedback_id", feedback.ID, "session_id", feedback.SessionID)
	return nil
}

func (r *GORMRepository) GetSessionFeedback(ctx context.Context, sessionID string) (*models.SessionFeedback, error) {
	var feedback models.SessionFeedback
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&feedback).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get session feedback", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &feedback, nil
}

// Performance score operations
func (r *GORMRepository) CreatePerformanceScore(ctx context.Context, score *models.PerformanceScore) error {
	if err := r.db.WithContext(ctx).Create(score).Error; err != nil {
		slog.Error("Failed to create performance score", "error", err, "session_id", score.SessionID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetPerformanceScores(ctx context.Context, sessionID string) ([]models.PerformanceScore, error) {
	var scores []models.PerformanceScore
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&scores).Error
	if err != nil {
		slog.Error("Failed to get performance scores", "error", err, "session_id", sessionID)
		return nil, err
	}
	return scores, nil
}
