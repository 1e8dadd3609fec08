package models

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job is created queued, moves to processing when a worker
// picks it up, and terminates at completed or failed. Terminal jobs are never
// reused; reprocessing creates a new row.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Step labels persisted on the job row while the pipeline executes.
const (
	JobStepTranscript = "transcript"
	JobStepEmbeddings = "embeddings"
)

// ContentProcessingJob is one attempt to materialize a content's transcript
// and vectors. Rows are append-only; the newest row per content_id is
// authoritative for status polling.
type ContentProcessingJob struct {
	ID        uuid.UUID `json:"job_id"`
	ContentID uuid.UUID `json:"content_id"`
	Status    string    `json:"status"`
	Step      string    `json:"step"`
	Error     *string   `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobMessage is the payload pushed onto the work queue in queue mode.
type JobMessage struct {
	ContentID  uuid.UUID `json:"content_id"`
	YoutubeID  string    `json:"youtube_id"`
	YoutubeURL string    `json:"youtube_url"`
	JobID      uuid.UUID `json:"job_id"`
}

type JobStatusResponse struct {
	ContentID uuid.UUID             `json:"content_id"`
	Job       *ContentProcessingJob `json:"job"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
