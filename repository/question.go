package repository

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"prepdeck/models"
)

// Question bank operations
func (r *GORMRepository) CreateQuestionBank(ctx context.Context, bank *models.QuestionBank) error {
	if err := r.db.WithContext(ctx).Create(bank).Error; err != nil {
		slog.Error("Failed to create question bank", "error", err)
		return err
	}
	slog.Info("Question bank created", "bank_id", bank.ID, "name", bank.Name)
	return nil
}

// GetQuestionBanks returns the user's private banks, plus public banks when
// includePublic is set. With an empty userID only public banks are visible.
func (r *GORMRepository) GetQuestionBanks(ctx context.Context, userID string, includePublic bool) ([]models.QuestionBank, error) {
	var banks []models.QuestionBank
	query := r.db.WithContext(ctx).Where("is_active = ?", true)

	if includePublic {
		if userID == "" {
			query = query.Where("user_id IS NULL")
		} else {
			query = query.Where("(user_id IS NULL OR user_id = ?)", userID)
		}
	} else {
		if userID == "" {
			return banks, nil
		}
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Find(&banks).Error; err != nil {
		slog.Error("Failed to get question banks", "error", err, "user_id", userID)
		return nil, err
	}
	return banks, nil
}

func (r *GORMRepository) GetQuestionBankByID(ctx context.Context, bankID string, userID string) (*models.QuestionBank, error) {
	var bank models.QuestionBank
	// Visible when public or owned by the user
	err := r.db.WithContext(ctx).
		Where("id = ? AND (user_id IS NULL OR is_public = ? OR user_id = ?)", bankID, true, userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		First(&bank).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question bank by ID", "error", err, "bank_id", bankID, "user_id", userID)
		return nil, err
	}
	return &bank, nil
}

func (r *GORMRepository) UpdateQuestionBank(ctx context.Context, bank *models.QuestionBank) error {
	if err := r.db.WithContext(ctx).Save(bank).Error; err != nil {
		slog.Error("Failed to update question bank", "error", err, "bank_id", bank.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteQuestionBank(ctx context.Context, bankID string) error {
	if err := r.db.WithContext(ctx).Where("bank_id = ?", bankID).Delete(&models.Question{}).Error; err != nil {
		slog.Error("Failed to delete bank questions", "error", err, "bank_id", bankID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", bankID).Delete(&models.QuestionBank{}).Error; err != nil {
		slog.Error("Failed to delete question bank", "error", err, "bank_id", bankID)
		return err
	}
	slog.Info("Question bank deleted", "bank_id", bankID)
	return nil
}

// Question operations
func (r *GORMRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create question", "error", err, "bank_id", question.BankID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetQuestionByID(ctx context.Context, questionID string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).First(&question).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question by ID", "error", err, "question_id", questionID)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) GetQuestions(ctx context.Context, bankID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).Where("bank_id = ?", bankID).Order("position").Find(&questions).Error
	if err != nil {
		slog.Error("Failed to get questions", "error", err, "bank_id", bankID)
		return nil, err
	}
	return questions, nil
}

func (r *GORMRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Save(question).Error; err != nil {
		slog.Error("Failed to update question", "error", err, "question_id", question.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).Delete(&models.Question{}).Error; err != nil {
		slog.Error("Failed to delete question", "error", err, "question_id", questionID)
		return err
	}
	return nil
}
