package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studytube-backend/internal/middleware"
	"studytube-backend/internal/models"
	"studytube-backend/internal/services"
)

// Persistence surfaces the handlers need; satisfied by the pgx repositories
// and by in-memory fakes in tests.

type ContentStore interface {
	CreateYoutubeContent(ctx context.Context, yc *models.YoutubeContent) error
	GetByYoutubeID(ctx context.Context, youtubeID string) (*models.YoutubeContent, error)
	GetByContentID(ctx context.Context, contentID uuid.UUID) (*models.YoutubeContent, error)
}

type GrantStore interface {
	Grant(ctx context.Context, userID, contentID uuid.UUID) error
	Exists(ctx context.Context, userID, contentID uuid.UUID) (bool, error)
}

type SpaceStore interface {
	EnsureDefault(ctx context.Context, userID uuid.UUID) (*models.Space, error)
	GetOwned(ctx context.Context, spaceID, userID uuid.UUID) (*models.Space, error)
	AddContent(ctx context.Context, spaceID, contentID uuid.UUID) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, contentID uuid.UUID, youtubeID, youtubeURL string) (uuid.UUID, error)
}

// MetadataResolver fetches display metadata for a video ID.
type MetadataResolver interface {
	GetVideoMetadata(ctx context.Context, videoID string) (title, channel, thumbnail string)
}

type ContentHandler struct {
	content  ContentStore
	grants   GrantStore
	spaces   SpaceStore
	enqueuer Enqueuer
	metadata MetadataResolver
}

func NewContentHandler(content ContentStore, grants GrantStore, spaces SpaceStore, enqueuer Enqueuer, metadata MetadataResolver) *ContentHandler {
	return &ContentHandler{
		content:  content,
		grants:   grants,
		spaces:   spaces,
		enqueuer: enqueuer,
		metadata: metadata,
	}
}

// Submit handles POST /content. Submitting the same video twice, by the same
// user or by different users, converges on one content row; grants are
// idempotent upserts. Processing is enqueued only when the transcript is
// still missing.
func (h *ContentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID := services.ExtractVideoID(req.YoutubeURL)
	if videoID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube URL", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	var space *models.Space
	var err error
	if req.SpaceID != nil {
		space, err = h.spaces.GetOwned(r.Context(), *req.SpaceID, userID)
		if err == nil && space == nil {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Space not found", r))
			return
		}
	} else {
		space, err = h.spaces.EnsureDefault(r.Context(), userID)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to resolve space", r))
		return
	}

	yc, err := h.content.GetByYoutubeID(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to look up content", r))
		return
	}

	if yc == nil {
		title, _, thumbnail := h.metadata.GetVideoMetadata(r.Context(), videoID)
		yc = &models.YoutubeContent{
			YoutubeID:    videoID,
			Title:        title,
			ThumbnailURL: thumbnail,
			SourceURL:    req.YoutubeURL,
		}
		if err := h.content.CreateYoutubeContent(r.Context(), yc); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create content record", r))
			return
		}
	}

	if err := h.grants.Grant(r.Context(), userID, yc.ContentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to grant content access", r))
		return
	}
	if err := h.spaces.AddContent(r.Context(), space.ID, yc.ContentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to add content to space", r))
		return
	}

	var jobID *uuid.UUID
	if len(yc.Transcript) == 0 {
		id, err := h.enqueuer.Enqueue(r.Context(), yc.ContentID, videoID, req.YoutubeURL)
		if err != nil {
			// Inline-mode pipeline failures surface here; the job row is
			// already marked failed for pollers.
			writeJSON(w, http.StatusInternalServerError, errorResp("PROCESSING_FAILED", err.Error(), r))
			return
		}
		jobID = &id
	}

	writeJSON(w, http.StatusOK, models.SubmitContentResponse{
		SpaceID:      space.ID,
		ContentID:    yc.ContentID,
		YoutubeID:    yc.YoutubeID,
		Title:        yc.Title,
		ThumbnailURL: yc.ThumbnailURL,
		JobID:        jobID,
	})
}

// GetContent handles GET /content/{id}; requires a user_content grant.
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
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

	yc, err := h.content.GetByContentID(r.Context(), contentID)
	if err != nil || yc == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Content not found", r))
		return
	}

	writeJSON(w, http.StatusOK, yc)
}

// Reprocess handles POST /content/{id}/reprocess: re-enqueues a content whose
// transcript never materialized (failed or stuck job). The normal enqueuer
// dedup applies, so an already-active job is reused rather than duplicated.
func (h *ContentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
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

	yc, err := h.content.GetByContentID(r.Context(), contentID)
	if err != nil || yc == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Content not found", r))
		return
	}

	if len(yc.Transcript) > 0 {
		writeJSON(w, http.StatusConflict, errorResp("ALREADY_PROCESSED", "Content already has a transcript", r))
		return
	}

	jobID, err := h.enqueuer.Enqueue(r.Context(), yc.ContentID, yc.YoutubeID, yc.SourceURL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("PROCESSING_FAILED", err.Error(), r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": jobID})
}
