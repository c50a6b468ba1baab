package services

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"prepdeck/repository"
)

// JobEndpoints exposes the read-only job board used to anchor practice goals.
type JobEndpoints struct {
	repo *repository.GORMRepository
}

func NewJobEndpoints(repo *repository.GORMRepository) *JobEndpoints {
	return &JobEndpoints{repo: repo}
}

func (e *JobEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", e.SearchJobsHandler)
		r.Get("/{id}", e.GetJobHandler)
	})
}

func (e *JobEndpoints) SearchJobsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.JobFilter{
		Keyword:         q.Get("q"),
		Location:        q.Get("location"),
		ExperienceLevel: q.Get("experience_level"),
	}

	if remote := q.Get("remote"); remote != "" {
		v, err := strconv.ParseBool(remote)
		if err != nil {
			writeError(w, http.StatusBadRequest, "remote must be true or false")
			return
		}
		filter.Remote = &v
	}
	if limit := q.Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = v
	}
	if offset := q.Get("offset"); offset != "" {
		v, err := strconv.Atoi(offset)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = v
	}

	jobs, total, err := e.repo.SearchJobListings(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to search job listings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to search job listings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"count":  len(jobs),
		"total":  total,
		"offset": filter.Offset,
	})
}

func (e *JobEndpoints) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := e.repo.GetJobListingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Failed to get job listing", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get job listing")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job listing not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}
