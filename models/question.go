package models

import (
	"time"

	"gorm.io/gorm"
)

// Interview types used across banks, sessions and recommendations.
const (
	TypeBehavioral   = "behavioral"
	TypeTechnical    = "technical"
	TypeSystemDesign = "system_design"
	TypeCaseStudy    = "case_study"
)

// InterviewTypes lists every supported interview type.
var InterviewTypes = []string{TypeBehavioral, TypeTechnical, TypeSystemDesign, TypeCaseStudy}

// ValidInterviewType reports whether t is one of the supported interview types.
func ValidInterviewType(t string) bool {
	for _, it := range InterviewTypes {
		if it == t {
			return true
		}
	}
	return false
}

// QuestionBank represents both public banks (user_id is NULL) and private
// user-created banks (user_id is NOT NULL)
type QuestionBank struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        *string        `gorm:"type:uuid;index" json:"user_id,omitempty"` // NULL for public banks
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	InterviewType string         `gorm:"size:50;not null" json:"interview_type"`
	IsPublic      bool           `gorm:"default:false" json:"is_public"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Questions []Question `gorm:"foreignKey:BankID" json:"questions,omitempty"`
}

// Question is a single interview question inside a bank.
type Question struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BankID     string         `gorm:"type:uuid;not null;index" json:"bank_id"`
	Prompt     string         `gorm:"type:text;not null" json:"prompt"`
	Difficulty int            `gorm:"not null;default:2;check:difficulty BETWEEN 1 AND 5" json:"difficulty"`
	Tags       string         `gorm:"size:500" json:"tags,omitempty"` // comma-separated
	Position   int            `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Bank QuestionBank `gorm:"foreignKey:BankID" json:"bank,omitempty"`
}
