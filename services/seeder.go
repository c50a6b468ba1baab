package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"prepdeck/models"
	"prepdeck/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	if s.isSeedingComplete(ctx) {
		slog.Info("Database seeding already completed, skipping")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	users := []models.User{
		{
			Email:      "test@example.com",
			Password:   string(hashedPassword),
			FullName:   "Test User",
			Role:       "user",
			VerifiedAt: &now,
		},
		{
			Email:      "demo@example.com",
			Password:   string(hashedPassword),
			FullName:   "Demo User",
			Role:       "user",
			VerifiedAt: &now,
		},
	}

	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	for _, bank := range defaultBanks() {
		if err := s.seedBank(ctx, bank); err != nil {
			slog.Error("Failed to seed question bank", "name", bank.Name, "error", err)
		}
	}

	for _, job := range defaultJobs() {
		if err := s.repo.CreateJobListing(ctx, &job); err != nil {
			slog.Error("Failed to seed job listing", "title", job.Title, "error", err)
		}
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// isSeedingComplete relies on the presence of the default public banks.
func (s *DatabaseSeeder) isSeedingComplete(ctx context.Context) bool {
	banks, err := s.repo.GetQuestionBanks(ctx, "", true)
	if err != nil {
		return false
	}

	publicBankCount := 0
	for _, bank := range banks {
		if bank.UserID == nil && bank.IsPublic {
			publicBankCount++
		}
	}

	return publicBankCount >= len(defaultBanks())
}

func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}
	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

func (s *DatabaseSeeder) seedBank(ctx context.Context, bank models.QuestionBank) error {
	existing, err := s.repo.GetQuestionBanks(ctx, "", true)
	if err != nil {
		return fmt.Errorf("error checking question banks: %w", err)
	}
	for _, b := range existing {
		if b.Name == bank.Name && b.UserID == nil {
			slog.Info("Public question bank already exists, skipping", "name", bank.Name)
			return nil
		}
	}

	questions := bank.Questions
	bank.Questions = nil
	if err := s.repo.CreateQuestionBank(ctx, &bank); err != nil {
		return fmt.Errorf("failed to create question bank %s: %w", bank.Name, err)
	}

	for i := range questions {
		questions[i].BankID = bank.ID
		if err := s.repo.CreateQuestion(ctx, &questions[i]); err != nil {
			slog.Error("Failed to seed question", "bank", bank.Name, "error", err)
		}
	}

	slog.Info("Created question bank", "name", bank.Name, "questions", len(questions))
	return nil
}

func defaultBanks() []models.QuestionBank {
	return []models.QuestionBank{
		{
			Name:          "Behavioral Foundations",
			Description:   "Core behavioral questions covering teamwork, conflict and ownership",
			InterviewType: models.TypeBehavioral,
			IsPublic:      true,
			IsActive:      true,
			Questions: []models.Question{
				{Prompt: "Tell me about a time you disagreed with a teammate. How did you resolve it?", Difficulty: 2, Tags: "conflict,teamwork", Position: 0},
				{Prompt: "Describe a project you owned end to end. What would you do differently?", Difficulty: 2, Tags: "ownership", Position: 1},
				{Prompt: "Tell me about a time you missed a deadline. What happened?", Difficulty: 3, Tags: "failure,accountability", Position: 2},
				{Prompt: "Describe a situation where you had to influence without authority.", Difficulty: 4, Tags: "leadership,influence", Position: 3},
			},
		},
		{
			Name:          "Technical Warm-up",
			Description:   "General software engineering questions for verbal practice",
			InterviewType: models.TypeTechnical,
			IsPublic:      true,
			IsActive:      true,
			Questions: []models.Question{
				{Prompt: "Explain the difference between a process and a thread.", Difficulty: 1, Tags: "os,fundamentals", Position: 0},
				{Prompt: "How would you find duplicate records in a large dataset?", Difficulty: 2, Tags: "algorithms", Position: 1},
				{Prompt: "Walk me through what happens when you type a URL into a browser.", Difficulty: 3, Tags: "networking,web", Position: 2},
				{Prompt: "How would you debug a service whose p99 latency doubled overnight?", Difficulty: 4, Tags: "debugging,performance", Position: 3},
			},
		},
		{
			Name:          "System Design Essentials",
			Description:   "Classic design prompts from small to large scale",
			InterviewType: models.TypeSystemDesign,
			IsPublic:      true,
			IsActive:      true,
			Questions: []models.Question{
				{Prompt: "Design a URL shortener.", Difficulty: 2, Tags: "design,storage", Position: 0},
				{Prompt: "Design a rate limiter for a public API.", Difficulty: 3, Tags: "design,throttling", Position: 1},
				{Prompt: "Design a news feed for a social network.", Difficulty: 4, Tags: "design,scale", Position: 2},
				{Prompt: "Design a globally distributed key-value store.", Difficulty: 5, Tags: "design,distributed", Position: 3},
			},
		},
		{
			Name:          "Case Study Starters",
			Description:   "Business and product case prompts",
			InterviewType: models.TypeCaseStudy,
			IsPublic:      true,
			IsActive:      true,
			Questions: []models.Question{
				{Prompt: "A subscription product's churn rose 20% last quarter. How do you investigate?", Difficulty: 3, Tags: "analysis,metrics", Position: 0},
				{Prompt: "Should a grocery chain launch a delivery service? Structure your answer.", Difficulty: 3, Tags: "strategy", Position: 1},
				{Prompt: "Estimate the market size for electric scooters in a mid-sized city.", Difficulty: 2, Tags: "estimation", Position: 2},
			},
		},
	}
}

func defaultJobs() []models.JobListing {
	posted := time.Now().AddDate(0, 0, -7)
	return []models.JobListing{
		{
			Title:           "Backend Engineer",
			Company:         "Northwind Labs",
			Location:        "Berlin, Germany",
			Remote:          true,
			Description:     "Build and operate Go services for a logistics platform.",
			ExperienceLevel: "mid",
			SalaryRange:     "70k-90k EUR",
			Tags:            "go,postgres,kubernetes",
			SourceURL:       "https://example.com/jobs/backend-engineer",
			PostedAt:        posted,
		},
		{
			Title:           "Senior Software Engineer",
			Company:         "Acme Cloud",
			Location:        "Remote",
			Remote:          true,
			Description:     "Own the design of distributed storage components.",
			ExperienceLevel: "senior",
			SalaryRange:     "120k-150k USD",
			Tags:            "distributed-systems,storage,go",
			SourceURL:       "https://example.com/jobs/senior-swe",
			PostedAt:        posted.AddDate(0, 0, 2),
		},
		{
			Title:           "Product Analyst",
			Company:         "Brightpath",
			Location:        "London, UK",
			Remote:          false,
			Description:     "Drive product decisions with experimentation and case analysis.",
			ExperienceLevel: "junior",
			SalaryRange:     "40k-55k GBP",
			Tags:            "sql,analytics,case-study",
			SourceURL:       "https://example.com/jobs/product-analyst",
			PostedAt:        posted.AddDate(0, 0, 4),
		},
	}
}
