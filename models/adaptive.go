package models

import (
	"time"

	"gorm.io/gorm"
)

// PerformanceProfile is the rolling aggregate the recommendation engine keeps
// per (user, interview type). It is updated exactly once per completed session.
type PerformanceProfile struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex:idx_profile_user_type" json:"user_id"`
	InterviewType  string         `gorm:"size:50;not null;uniqueIndex:idx_profile_user_type" json:"interview_type"`
	AvgScore       float64        `gorm:"type:decimal(5,2);not null;default:0" json:"avg_score"` // exponentially weighted
	ScoreVariance  float64        `gorm:"type:decimal(8,4);not null;default:0" json:"score_variance"`
	LastScore      float64        `gorm:"type:decimal(5,2);not null;default:0" json:"last_score"`
	Difficulty     int            `gorm:"not null;default:2" json:"difficulty"` // difficulty of the most recent session
	CompletedCount int            `gorm:"not null;default:0" json:"completed_count"`
	AbandonedCount int            `gorm:"not null;default:0" json:"abandoned_count"`
	StrongStreak   int            `gorm:"not null;default:0" json:"strong_streak"`
	WeakStreak     int            `gorm:"not null;default:0" json:"weak_streak"`
	LastPracticed  time.Time      `json:"last_practiced"`
	LastSessionID  string         `gorm:"type:uuid" json:"-"` // idempotency guard for profile updates
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Trend is the signed difference between the latest score and the rolling
// average, positive when the user is improving.
func (p *PerformanceProfile) Trend() float64 {
	if p.CompletedCount < 2 {
		return 0
	}
	return p.LastScore - p.AvgScore
}

// Recommendation is a persisted next-session suggestion. It is resolved at
// most once, when the user starts their next session.
type Recommendation struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        string         `gorm:"type:uuid;not null;index" json:"user_id"`
	InterviewType string         `gorm:"size:50;not null" json:"interview_type"`
	Difficulty    int            `gorm:"not null" json:"difficulty"`
	Confidence    float64        `gorm:"type:decimal(4,3);not null" json:"confidence"` // 0.000 to 1.000
	Rule          string         `gorm:"size:50;not null" json:"rule"`
	Rationale     string         `gorm:"type:text;not null" json:"rationale"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	Matched       *bool          `json:"matched,omitempty"` // set when resolved
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
