package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studytube-backend/internal/middleware"
	"studytube-backend/internal/models"
)

type JobReader interface {
	GetLatestByContentID(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error)
}

// JobHandler exposes the newest job row for a content item to pollers.
type JobHandler struct {
	jobs   JobReader
	grants GrantStore
}

func NewJobHandler(jobs JobReader, grants GrantStore) *JobHandler {
	return &JobHandler{jobs: jobs, grants: grants}
}

// GetStatus handles GET /content/{id}/status. Pure read: returns the latest
// job, or a null job when the content was reused from a prior transcript and
// never needed one.
func (h *JobHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	contentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid content ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	granted, err := h.grants.Exists(r.Context(), userID, contentID)
	if err != nil || !granted {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Content not found", r))
		return
	}

	job, err := h.jobs.GetLatestByContentID(r.Context(), contentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load job status", r))
		return
	}

	writeJSON(w, http.StatusOK, models.JobStatusResponse{
		ContentID: contentID,
		Job:       job,
	})
}
