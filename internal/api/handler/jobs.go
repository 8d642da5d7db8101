// Package handler contains the HTTP handlers that expose the job
// orchestrator to presentation layers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/sandeepmv/herdwatch/internal/api/middleware"
	"github.com/sandeepmv/herdwatch/internal/api/response"
	"github.com/sandeepmv/herdwatch/internal/jobs"
	"github.com/sandeepmv/herdwatch/pkg/models"
)

// JobService defines the orchestrator surface the handlers depend on.
type JobService interface {
	Submit(ctx context.Context, in jobs.SubmitInput) (*models.VideoJob, error)
	Get(localID uuid.UUID) (*models.VideoJob, bool)
	List() []*models.VideoJob
	Remove(ctx context.Context, localID uuid.UUID) error
}

// NewSubmitJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// The job is registered immediately; analysis progress is observed by
// polling GET /api/v1/jobs/{jobID}.
func NewSubmitJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			Name      string `json:"name"`
			SizeBytes int64  `json:"size_bytes"`
			Scenario  string `json:"scenario"`
			UploadURL string `json:"upload_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.SizeBytes < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "size_bytes must not be negative", nil)
			return
		}
		if req.UploadURL == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "upload_url is required", nil)
			return
		}

		job, err := svc.Submit(r.Context(), jobs.SubmitInput{
			TenantID:  tenantID,
			Name:      req.Name,
			SizeBytes: req.SizeBytes,
			Scenario:  req.Scenario,
			UploadURL: req.UploadURL,
		})
		if err != nil {
			if errors.Is(err, jobs.ErrInvalidScenario) {
				response.Error(w, http.StatusBadRequest, "INVALID_SCENARIO",
					"scenario must be one of standard, outbreak, aggression", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Accepted(w, job)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// Jobs are returned in submission order from the live registry.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, svc.List())
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		localID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		job, ok := svc.Get(localID)
		if !ok {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such job", nil)
			return
		}
		response.JSON(w, job)
	}
}

// NewRemoveJobHandler returns an http.HandlerFunc for DELETE /api/v1/jobs/{jobID}.
// Removal cancels the job's poller before responding.
func NewRemoveJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		localID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		if err := svc.Remove(r.Context(), localID); err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such job", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
