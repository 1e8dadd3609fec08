package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studytube-backend/internal/models"
)

// QueueContentProcessing is the durable work queue drained by the worker.
const QueueContentProcessing = "queue:content-processing"

// Dispatcher hands a job to its execution mode, chosen once at startup.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg models.JobMessage) error
}

// InlineDispatcher runs the pipeline synchronously in the caller's request.
type InlineDispatcher struct {
	pipeline *Pipeline
}

func NewInlineDispatcher(p *Pipeline) *InlineDispatcher {
	return &InlineDispatcher{pipeline: p}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, msg models.JobMessage) error {
	outcome := d.pipeline.Run(ctx, msg)
	if outcome.Failed() {
		return outcome.Err
	}
	return nil
}

// QueueDispatcher pushes the job onto the redis work queue and returns
// immediately; a separate worker process picks it up.
type QueueDispatcher struct {
	redis *redis.Client
	queue string
}

func NewQueueDispatcher(redisClient *redis.Client) *QueueDispatcher {
	return &QueueDispatcher{redis: redisClient, queue: QueueContentProcessing}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, msg models.JobMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}
	if err := d.redis.LPush(ctx, d.queue, string(payload)).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job message: %w", err)
	}
	return nil
}

// Enqueuer decides whether processing work is required and starts it.
type Enqueuer struct {
	jobs       JobStore
	dispatcher Dispatcher
}

func NewEnqueuer(jobs JobStore, dispatcher Dispatcher) *Enqueuer {
	return &Enqueuer{jobs: jobs, dispatcher: dispatcher}
}

// Enqueue returns the ID of the job now responsible for the content. An
// existing queued or processing job is reused so concurrent pollers share one
// unit of work. The find-then-create sequence is not atomic: two truly
// concurrent submissions of the same new video can both create a job row, a
// documented limitation of this single-queue design.
//
// In inline mode a pipeline failure is returned alongside the job ID, since
// the job row (already marked failed) still exists for status polling.
func (e *Enqueuer) Enqueue(ctx context.Context, contentID uuid.UUID, youtubeID, youtubeURL string) (uuid.UUID, error) {
	active, err := e.jobs.FindActiveByContentID(ctx, contentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up active job: %w", err)
	}
	if active != nil {
		return active.ID, nil
	}

	job, err := e.jobs.Create(ctx, contentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job: %w", err)
	}

	msg := models.JobMessage{
		ContentID:  contentID,
		YoutubeID:  youtubeID,
		YoutubeURL: youtubeURL,
		JobID:      job.ID,
	}
	if err := e.dispatcher.Dispatch(ctx, msg); err != nil {
		return job.ID, err
	}
	return job.ID, nil
}
