package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"prepdeck/models"
)

// Performance profile operations
func (r *GORMRepository) GetPerformanceProfile(ctx context.Context, userID, interviewType string) (*models.PerformanceProfile, error) {
	var profile models.PerformanceProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND interview_type = ?", userID, interviewType).
		First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get performance profile", "error", err, "user_id", userID, "interview_type", interviewType)
		return nil, err
	}
	return &profile, nil
}

func (r *GORMRepository) GetPerformanceProfiles(ctx context.Context, userID string) ([]models.PerformanceProfile, error) {
	var profiles []models.PerformanceProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&profiles).Error
	if err != nil {
		slog.Error("Failed to get performance profiles", "error", err, "user_id", userID)
		return nil, err
	}
	return profiles, nil
}

func (r *GORMRepository) SavePerformanceProfile(ctx context.Context, profile *models.PerformanceProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		slog.Error("Failed to save performance profile", "error", err, "user_id", profile.UserID, "interview_type", profile.InterviewType)
		return err
	}
	return nil
}

// Recommendation operations
func (r *GORMRepository) CreateRecommendation(ctx context.Context, rec *models.Recommendation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		slog.Error("Failed to create recommendation", "error", err, "user_id", rec.UserID)
		return err
	}
	slog.Info("Recommendation created", "recommendation_id", rec.ID, "user_id", rec.UserID,
		"interview_type", rec.InterviewType, "difficulty", rec.Difficulty, "rule", rec.Rule)
	return nil
}

// GetOpenRecommendation returns the newest unresolved recommendation for the user.
func (r *GORMRepository) GetOpenRecommendation(ctx context.Context, userID string) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND resolved_at IS NULL", userID).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get open recommendation", "error", err, "user_id", userID)
		return nil, err
	}
	return &rec, nil
}

// ResolveRecommendation marks a recommendation as compared against the user's
// actual choice. Superseded recommendations stay unresolved and are excluded
// from accuracy counts.
func (r *GORMRepository) ResolveRecommendation(ctx context.Context, id string, matched bool, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{"resolved_at": at, "matched": matched}).Error; err != nil {
		slog.Error("Failed to resolve recommendation", "error", err, "recommendation_id", id)
		return err
	}
	return nil
}

// RecommendationAccuracy returns resolved and matched counts for a user.
func (r *GORMRepository) RecommendationAccuracy(ctx context.Context, userID string) (resolved int64, matched int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("user_id = ? AND resolved_at IS NOT NULL", userID).
		Count(&resolved).Error; err != nil {
		slog.Error("Failed to count resolved recommendations", "error", err, "user_id", userID)
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("user_id = ? AND matched = ?", userID, true).
		Count(&matched).Error; err != nil {
		slog.Error("Failed to count matched recommendations", "error", err, "user_id", userID)
		return 0, 0, err
	}
	return resolved, matched, nil
}
