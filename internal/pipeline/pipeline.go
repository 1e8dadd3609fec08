package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"studytube-backend/internal/models"
	"studytube-backend/internal/services"
)

// ErrTranscriptNotFound is the terminal failure when both transcript sources
// come back empty. Surfaced verbatim to polling clients.
var ErrTranscriptNotFound = errors.New("Transcript not found")

// ContentStore is the persistence surface the pipeline needs for content.
type ContentStore interface {
	GetByContentID(ctx context.Context, contentID uuid.UUID) (*models.YoutubeContent, error)
	UpdateTranscript(ctx context.Context, contentID uuid.UUID, chunks []models.TranscriptChunk) error
}

// JobStore is the persistence surface for job rows.
type JobStore interface {
	Create(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error)
	FindActiveByContentID(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateStep(ctx context.Context, id uuid.UUID, step string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// TranscriptProvider yields segments or nil when no transcript exists.
type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, videoID string) []models.TranscriptSegment
}

// Outcome is the tagged result of one pipeline run. The pipeline persists
// job state itself; callers only inspect the outcome.
type Outcome struct {
	Status          string // models.JobStatusCompleted | models.JobStatusFailed
	ChunkCount      int
	VectorsUpserted int
	Err             error
}

func (o Outcome) Failed() bool {
	return o.Status == models.JobStatusFailed
}

type Pipeline struct {
	jobs        JobStore
	content     ContentStore
	transcripts TranscriptProvider
	embeddings  *services.EmbeddingService
	vectors     services.VectorStore
	chunkWords  int
}

func New(
	jobs JobStore,
	content ContentStore,
	transcripts TranscriptProvider,
	embeddings *services.EmbeddingService,
	vectors services.VectorStore,
	chunkWords int,
) *Pipeline {
	if chunkWords <= 0 {
		chunkWords = services.DefaultChunkWords
	}
	return &Pipeline{
		jobs:        jobs,
		content:     content,
		transcripts: transcripts,
		embeddings:  embeddings,
		vectors:     vectors,
		chunkWords:  chunkWords,
	}
}

// Run executes the full processing sequence for one job: transcript fetch,
// chunking, transcript persistence, embeddings, vector upsert. Steps are not
// transactional across each other; a crash mid-run can leave a transcript
// without vectors, which reprocessing resolves.
func (p *Pipeline) Run(ctx context.Context, msg models.JobMessage) Outcome {
	if err := p.jobs.UpdateStatus(ctx, msg.JobID, models.JobStatusProcessing); err != nil {
		return p.fail(ctx, msg.JobID, fmt.Errorf("failed to mark job processing: %w", err))
	}

	segments := p.transcripts.FetchTranscript(ctx, msg.YoutubeID)
	if len(segments) == 0 {
		return p.fail(ctx, msg.JobID, ErrTranscriptNotFound)
	}

	chunks := services.ChunkTranscript(segments, p.chunkWords)
	if err := p.content.UpdateTranscript(ctx, msg.ContentID, chunks); err != nil {
		return p.fail(ctx, msg.JobID, fmt.Errorf("failed to persist transcript: %w", err))
	}

	if err := p.jobs.UpdateStep(ctx, msg.JobID, models.JobStepEmbeddings); err != nil {
		return p.fail(ctx, msg.JobID, fmt.Errorf("failed to advance job step: %w", err))
	}

	vectors, embReport := p.embeddings.EmbedChunks(ctx, msg.YoutubeID, chunks)
	if embReport.Failed > 0 {
		log.Printf("Job %s: %d/%d chunks failed to embed", msg.JobID, embReport.Failed, len(chunks))
	}
	if len(chunks) > 0 && embReport.Succeeded == 0 {
		return p.fail(ctx, msg.JobID, fmt.Errorf("embedding generation failed for all %d chunks: %s", len(chunks), embReport.Errors[0]))
	}

	upsertReport := services.UpsertInBatches(ctx, p.vectors, vectors)
	if upsertReport.BatchesFailed > 0 {
		log.Printf("Job %s: %d vector batches failed to upsert", msg.JobID, upsertReport.BatchesFailed)
	}
	if len(vectors) > 0 && upsertReport.BatchesSucceeded == 0 {
		return p.fail(ctx, msg.JobID, fmt.Errorf("vector upsert failed for all batches: %s", upsertReport.Errors[0]))
	}

	if err := p.jobs.UpdateStatus(ctx, msg.JobID, models.JobStatusCompleted); err != nil {
		return p.fail(ctx, msg.JobID, fmt.Errorf("failed to mark job completed: %w", err))
	}

	return Outcome{
		Status:          models.JobStatusCompleted,
		ChunkCount:      len(chunks),
		VectorsUpserted: upsertReport.VectorsUpserted,
	}
}

// fail persists the terminal status best-effort; if the database is down the
// failed status itself may not stick, which polling then reports as a stale
// processing job.
func (p *Pipeline) fail(ctx context.Context, jobID uuid.UUID, cause error) Outcome {
	if err := p.jobs.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		log.Printf("Failed to persist failed status for job %s: %v", jobID, err)
	}
	return Outcome{Status: models.JobStatusFailed, Err: cause}
}
