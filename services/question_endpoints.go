package services

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prepdeck/models"
	"prepdeck/repository"
)

type QuestionEndpoints struct {
	repo    *repository.GORMRepository
	coachAI *CoachAIService
	limiter *RateLimiter
}

type CreateBankRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Description   string `json:"description"`
	InterviewType string `json:"interview_type" validate:"required,oneof=behavioral technical system_design case_study"`
	IsPublic      bool   `json:"is_public"`
}

type CreateQuestionRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	Difficulty int    `json:"difficulty" validate:"required,min=1,max=5"`
	Tags       string `json:"tags" validate:"max=500"`
	Position   int    `json:"position" validate:"min=0"`
}

type GenerateQuestionsRequest struct {
	Count      int `json:"count" validate:"required,min=1,max=10"`
	Difficulty int `json:"difficulty" validate:"required,min=1,max=5"`
}

type GetBanksResponse struct {
	Banks []models.QuestionBank `json:"banks"`
	Count int                   `json:"count"`
}

func NewQuestionEndpoints(repo *repository.GORMRepository, coachAI *CoachAIService, limiter *RateLimiter) *QuestionEndpoints {
	return &QuestionEndpoints{repo: repo, coachAI: coachAI, limiter: limiter}
}

func (e *QuestionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/banks", func(r chi.Router) {
		r.Post("/", e.CreateBankHandler)
		r.Get("/", e.GetBanksHandler)
		r.Get("/{id}", e.GetBankHandler)
		r.Put("/{id}", e.UpdateBankHandler)
		r.Delete("/{id}", e.DeleteBankHandler)
		r.Post("/{id}/questions", e.CreateQuestionHandler)
		if e.limiter != nil {
			r.With(e.limiter.Middleware).Post("/{id}/generate", e.GenerateQuestionsHandler)
		} else {
			r.Post("/{id}/generate", e.GenerateQuestionsHandler)
		}
		r.Put("/{id}/questions/{qid}", e.UpdateQuestionHandler)
		r.Delete("/{id}/questions/{qid}", e.DeleteQuestionHandler)
	})
}

func (e *QuestionEndpoints) CreateBankHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	var req CreateBankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bank := models.QuestionBank{
		ID:            uuid.New().String(),
		UserID:        &user.ID,
		Name:          req.Name,
		Description:   req.Description,
		InterviewType: req.InterviewType,
		IsPublic:      req.IsPublic,
		IsActive:      true,
	}

	if err := e.repo.CreateQuestionBank(r.Context(), &bank); err != nil {
		slog.Error("Failed to create question bank", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to create question bank")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"bank":    bank,
		"message": "Question bank created successfully",
	})

	slog.Info("Question bank created", "bank_id", bank.ID, "user_id", user.ID, "name", bank.Name)
}

func (e *QuestionEndpoints) GetBanksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	typeFilter := r.URL.Query().Get("interview_type")
	if typeFilter != "" && !models.ValidInterviewType(typeFilter) {
		writeError(w, http.StatusBadRequest, "Invalid interview_type")
		return
	}

	banks, err := e.repo.GetQuestionBanks(r.Context(), user.ID, true)
	if err != nil {
		slog.Error("Failed to get question banks", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get question banks")
		return
	}

	if typeFilter != "" {
		filtered := banks[:0]
		for _, b := range banks {
			if b.InterviewType == typeFilter {
				filtered = append(filtered, b)
			}
		}
		banks = filtered
	}

	writeJSON(w, http.StatusOK, GetBanksResponse{Banks: banks, Count: len(banks)})
}

func (e *QuestionEndpoints) GetBankHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bankID := chi.URLParam(r, "id")
	bank, err := e.repo.GetQuestionBankByID(r.Context(), bankID, user.ID)
	if err != nil {
		slog.Error("Failed to get question bank", "error", err, "bank_id", bankID, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to get question bank")
		return
	}
	if bank == nil {
		writeError(w, http.StatusNotFound, "Question bank not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bank": bank})
}

// ownedBank loads the bank and enforces ownership for mutations. Public banks
// are readable by everyone but only writable by their owner.
func (e *QuestionEndpoints) ownedBank(w http.ResponseWriter, r *http.Request, userID string) *models.QuestionBank {
	bankID := chi.URLParam(r, "id")
	bank, err := e.repo.GetQuestionBankByID(r.Context(), bankID, userID)
	if err != nil {
		slog.Error("Failed to get question bank", "error", err, "bank_id", bankID, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to get question bank")
		return nil
	}
	if bank == nil {
		writeError(w, http.StatusNotFound, "Question bank not found")
		return nil
	}
	if bank.UserID == nil || *bank.UserID != userID {
		writeError(w, http.StatusForbidden, "Not authorized to modify this question bank")
		return nil
	}
	return bank
}

func (e *QuestionEndpoints) UpdateBankHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	var req CreateBankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bank.Name = req.Name
	bank.Description = req.Description
	bank.InterviewType = req.InterviewType
	bank.IsPublic = req.IsPublic

	if err := e.repo.UpdateQuestionBank(r.Context(), bank); err != nil {
		slog.Error("Failed to update question bank", "error", err, "bank_id", bank.ID)
		writeError(w, http.StatusInternalServerError, "Failed to update question bank")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bank":    bank,
		"message": "Question bank updated successfully",
	})
}

func (e *QuestionEndpoints) DeleteBankHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	if err := e.repo.DeleteQuestionBank(r.Context(), bank.ID); err != nil {
		slog.Error("Failed to delete question bank", "error", err, "bank_id", bank.ID)
		writeError(w, http.StatusInternalServerError, "Failed to delete question bank")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Question bank deleted successfully",
	})

	slog.Info("Question bank deleted", "bank_id", bank.ID, "user_id", user.ID)
}

func (e *QuestionEndpoints) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question := models.Question{
		ID:         uuid.New().String(),
		BankID:     bank.ID,
		Prompt:     req.Prompt,
		Difficulty: req.Difficulty,
		Tags:       req.Tags,
		Position:   req.Position,
	}

	if err := e.repo.CreateQuestion(r.Context(), &question); err != nil {
		slog.Error("Failed to create question", "error", err, "bank_id", bank.ID)
		writeError(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"question": question,
		"message":  "Question created successfully",
	})
}

func (e *QuestionEndpoints) UpdateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	questionID := chi.URLParam(r, "qid")
	question, err := e.repo.GetQuestionByID(r.Context(), questionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get question")
		return
	}
	if question == nil || question.BankID != bank.ID {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}

	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question.Prompt = req.Prompt
	question.Difficulty = req.Difficulty
	question.Tags = req.Tags
	question.Position = req.Position

	if err := e.repo.UpdateQuestion(r.Context(), question); err != nil {
		slog.Error("Failed to update question", "error", err, "question_id", questionID)
		writeError(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question": question,
		"message":  "Question updated successfully",
	})
}

func (e *QuestionEndpoints) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	questionID := chi.URLParam(r, "qid")
	question, err := e.repo.GetQuestionByID(r.Context(), questionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get question")
		return
	}
	if question == nil || question.BankID != bank.ID {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}

	if err := e.repo.DeleteQuestion(r.Context(), questionID); err != nil {
		slog.Error("Failed to delete question", "error", err, "question_id", questionID)
		writeError(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Question deleted successfully",
	})
}

// GenerateQuestionsHandler asks the AI service for candidate questions and
// appends them to the bank.
func (e *QuestionEndpoints) GenerateQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "User not found in context")
		return
	}

	bank := e.ownedBank(w, r, user.ID)
	if bank == nil {
		return
	}

	if e.coachAI == nil {
		writeError(w, http.StatusInternalServerError, "AI service not configured")
		return
	}

	var req GenerateQuestionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	prompts, err := e.coachAI.GenerateQuestions(r.Context(), bank, req.Count, req.Difficulty)
	if err != nil {
		slog.Error("Failed to generate questions", "error", err, "bank_id", bank.ID)
		writeError(w, http.StatusInternalServerError, "Failed to generate questions")
		return
	}

	existing, err := e.repo.GetQuestions(r.Context(), bank.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load existing questions")
		return
	}

	created := make([]models.Question, 0, len(prompts))
	for i, prompt := range prompts {
		question := models.Question{
			ID:         uuid.New().String(),
			BankID:     bank.ID,
			Prompt:     prompt,
			Difficulty: req.Difficulty,
			Position:   len(existing) + i,
		}
		if err := e.repo.CreateQuestion(r.Context(), &question); err != nil {
			slog.Error("Failed to store generated question", "error", err, "bank_id", bank.ID)
			continue
		}
		created = append(created, question)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"questions": created,
		"count":     len(created),
		"message":   "Questions generated successfully",
	})

	slog.Info("Questions generated", "bank_id", bank.ID, "user_id", user.ID, "count", len(created))
}
