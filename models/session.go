package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

const (
	SpeakerCoach     = "coach"
	SpeakerCandidate = "candidate"
)

// PracticeSession represents each practice attempt, linking a user to an
// interview type, difficulty and, optionally, a question bank.
type PracticeSession struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        string         `gorm:"type:uuid;not null;index" json:"user_id"`
	BankID        *string        `gorm:"type:uuid;index" json:"bank_id,omitempty"`
	InterviewType string         `gorm:"size:50;not null" json:"interview_type"`
	Difficulty    int            `gorm:"not null;check:difficulty BETWEEN 1 AND 5" json:"difficulty"`
	Status        string         `gorm:"not null;default:'active';check:status IN ('active', 'completed', 'abandoned')" json:"status"`
	StartedAt     time.Time      `gorm:"not null" json:"started_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty"`
	Duration      int            `json:"duration"` // Duration in seconds
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User              User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bank              *QuestionBank      `gorm:"foreignKey:BankID" json:"bank,omitempty"`
	Transcripts       []SessionTurn      `gorm:"foreignKey:SessionID" json:"transcripts,omitempty"`
	Feedback          *SessionFeedback   `gorm:"foreignKey:SessionID" json:"feedback,omitempty"`
	PerformanceScores []PerformanceScore `gorm:"foreignKey:SessionID" json:"performance_scores,omitempty"`
}

// SessionTurn stores the ordered, turn-by-turn text of a live practice session
type SessionTurn struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID string         `gorm:"type:uuid;not null;index" json:"session_id"`
	TurnOrder int            `gorm:"not null" json:"turn_order"`
	Speaker   string         `gorm:"not null;check:speaker IN ('coach', 'candidate')" json:"speaker"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session PracticeSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// SessionFeedback stores the AI-generated narrative analysis of a completed session
type SessionFeedback struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID       string         `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	Summary         string         `gorm:"type:text;not null" json:"summary"`
	Strengths       string         `gorm:"type:text" json:"strengths,omitempty"`
	Weaknesses      string         `gorm:"type:text" json:"weaknesses,omitempty"`
	Recommendations string         `gorm:"type:text" json:"recommendations,omitempty"`
	OverallScore    float64        `gorm:"type:decimal(5,2)" json:"overall_score"` // 0.00 to 100.00
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session PracticeSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// PerformanceScore is a key-value table to store scores for various metrics.
// This allows for future expansion without schema changes.
type PerformanceScore struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID string         `gorm:"type:uuid;not null;index" json:"session_id"`
	Metric    string         `gorm:"not null" json:"metric"`                  // e.g., "communication", "technical_knowledge"
	Score     float64        `gorm:"type:decimal(5,2);not null" json:"score"` // 0.00 to 100.00
	MaxScore  float64        `gorm:"type:decimal(5,2);not null;default:100.00" json:"max_score"`
	Weight    float64        `gorm:"type:decimal(3,2);not null;default:1.00" json:"weight"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session PracticeSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// WeightedAverage folds a set of per-metric scores into a single 0-100 value.
func WeightedAverage(scores []PerformanceScore) float64 {
	var sum, weights float64
	for _, s := range scores {
		if s.MaxScore <= 0 {
			continue
		}
		w := s.Weight
		if w <= 0 {
			w = 1
		}
		sum += (s.Score / s.MaxScore) * 100 * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}
