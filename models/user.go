package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"size:255" json:"-"` // Hashed password (excluded from JSON)
	FullName   string         `gorm:"size:255" json:"full_name,omitempty"`
	AvatarURL  string         `gorm:"size:500" json:"avatar_url,omitempty"`
	Role       string         `gorm:"default:'user'" json:"role"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	QuestionBanks     []QuestionBank     `gorm:"foreignKey:UserID" json:"question_banks,omitempty"`
	PracticeSessions  []PracticeSession  `gorm:"foreignKey:UserID" json:"practice_sessions,omitempty"`
	ScheduledSessions []ScheduledSession `gorm:"foreignKey:UserID" json:"scheduled_sessions,omitempty"`
	RefreshTokens     []RefreshToken     `gorm:"foreignKey:UserID" json:"refresh_tokens,omitempty"`
}

// Verified reports whether the user has confirmed their email address.
func (u *User) Verified() bool {
	return u.VerifiedAt != nil
}

type RefreshToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// EmailVerification stores single-use verification tokens. Only the SHA-256
// hash of the token is persisted; the raw token travels by email.
type EmailVerification struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash  string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time      `gorm:"not null;index" json:"expires_at"`
	ConsumedAt *time.Time     `json:"consumed_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
