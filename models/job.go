package models

import (
	"time"

	"gorm.io/gorm"
)

// JobListing is a browsable job posting. Listings are platform-seeded rows;
// users only search and read them.
type JobListing struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title           string         `gorm:"not null;index" json:"title"`
	Company         string         `gorm:"not null" json:"company"`
	Location        string         `gorm:"size:255;index" json:"location"`
	Remote          bool           `gorm:"default:false" json:"remote"`
	Description     string         `gorm:"type:text" json:"description"`
	ExperienceLevel string         `gorm:"size:50" json:"experience_level,omitempty"` // junior, mid, senior
	SalaryRange     string         `gorm:"size:100" json:"salary_range,omitempty"`
	Tags            string         `gorm:"size:500" json:"tags,omitempty"` // comma-separated
	SourceURL       string         `gorm:"size:500" json:"source_url,omitempty"`
	PostedAt        time.Time      `gorm:"not null;index" json:"posted_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
