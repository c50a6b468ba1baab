package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"prepdeck/models"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// DB exposes the underlying handle for callers that need raw access.
func (r *GORMRepository) DB() *gorm.DB {
	return r.db
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.EmailVerification{},
		&models.QuestionBank{},
		&models.Question{},
		&models.PracticeSession{},
		&models.SessionTurn{},
		&models.SessionFeedback{},
		&models.PerformanceScore{},
		&models.PerformanceProfile{},
		&models.Recommendation{},
		&models.ScheduledSession{},
		&models.JobListing{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) MarkUserVerified(ctx context.Context, userID string, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("verified_at", at).Error; err != nil {
		slog.Error("Failed to mark user verified", "error", err, "user_id", userID)
		return err
	}
	slog.Info("User verified", "user_id", userID)
	return nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Email verification operations
func (r *GORMRepository) CreateEmailVerification(ctx context.Context, v *models.EmailVerification) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		slog.Error("Failed to create email verification", "error", err, "user_id", v.UserID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetEmailVerificationByHash(ctx context.Context, tokenHash string) (*models.EmailVerification, error) {
	var v models.EmailVerification
	if err := r.db.WithContext(ctx).Where("token_hash = ? AND consumed_at IS NULL", tokenHash).First(&v).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get email verification", "error", err)
		return nil, err
	}
	return &v, nil
}

func (r *GORMRepository) ConsumeEmailVerification(ctx context.Context, id string, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.EmailVerification{}).
		Where("id = ?", id).
		Update("consumed_at", at).Error; err != nil {
		slog.Error("Failed to consume email verification", "error", err, "verification_id", id)
		return err
	}
	return nil
}

// InvalidateEmailVerifications soft-deletes any outstanding tokens before a resend.
func (r *GORMRepository) InvalidateEmailVerifications(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at IS NULL", userID).
		Delete(&models.EmailVerification{}).Error; err != nil {
		slog.Error("Failed to invalidate email verifications", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// DeleteExpiredEmailVerifications clears tokens past their expiry. Used by the
// background worker.
func (r *GORMRepository) DeleteExpiredEmailVerifications(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.EmailVerification{})
	if res.Error != nil {
		slog.Error("Failed to delete expired email verifications", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
