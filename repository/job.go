package repository

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"prepdeck/models"
)

// JobFilter narrows a job listing search. A zero value matches everything.
type JobFilter struct {
	Keyword         string
	Location        string
	ExperienceLevel string
	Remote          *bool
	Limit           int
	Offset          int
}

const maxJobPageSize = 50

// SearchJobListings returns matching listings sorted by recency, plus the
// total match count for pagination.
func (r *GORMRepository) SearchJobListings(ctx context.Context, filter JobFilter) ([]models.JobListing, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.JobListing{})

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := "%" + strings.ToLower(kw) + "%"
		query = query.Where(
			"(LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(tags) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}
	if filter.ExperienceLevel != "" {
		query = query.Where("experience_level = ?", filter.ExperienceLevel)
	}
	if filter.Remote != nil {
		query = query.Where("remote = ?", *filter.Remote)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		slog.Error("Failed to count job listings", "error", err)
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxJobPageSize {
		limit = maxJobPageSize
	}

	var jobs []models.JobListing
	err := query.Order("posted_at DESC").Limit(limit).Offset(filter.Offset).Find(&jobs).Error
	if err != nil {
		slog.Error("Failed to search job listings", "error", err)
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *GORMRepository) GetJobListingByID(ctx context.Context, id string) (*models.JobListing, error) {
	var job models.JobListing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get job listing", "error", err, "job_id", id)
		return nil, err
	}
	return &job, nil
}

func (r *GORMRepository) CreateJobListing(ctx context.Context, job *models.JobListing) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		slog.Error("Failed to create job listing", "error", err)
		return err
	}
	return nil
}
