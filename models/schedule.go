package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ScheduleUpcoming  = "upcoming"
	ScheduleElapsed   = "elapsed"
	ScheduleCancelled = "cancelled"
)

// ScheduledSession is a calendar-bound practice session record, optionally
// mirrored to an external calendar.
type ScheduledSession struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title           string         `gorm:"not null" json:"title"`
	InterviewType   string         `gorm:"size:50;not null" json:"interview_type"`
	Difficulty      int            `gorm:"not null;default:2" json:"difficulty"`
	StartsAt        time.Time      `gorm:"not null;index" json:"starts_at"`
	DurationMinutes int            `gorm:"not null;default:30" json:"duration_minutes"`
	Reminder        bool           `gorm:"default:false" json:"reminder"`
	Status          string         `gorm:"not null;default:'upcoming';check:status IN ('upcoming', 'elapsed', 'cancelled')" json:"status"`
	CalendarEventID string         `gorm:"size:255" json:"-"` // external calendar event, empty when not mirrored
	CalendarSynced  bool           `gorm:"default:false" json:"calendar_synced"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// EndsAt returns the scheduled end time.
func (s *ScheduledSession) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
