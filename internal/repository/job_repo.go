package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytube-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = "id, content_id, status, step, error, created_at, updated_at"

func (r *JobRepo) Create(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error) {
	j := &models.ContentProcessingJob{
		ID:        uuid.New(),
		ContentID: contentID,
		Status:    models.JobStatusQueued,
		Step:      models.JobStepTranscript,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO content_processing_jobs (id, content_id, status, step)
		 VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		j.ID, j.ContentID, j.Status, j.Step,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ContentProcessingJob, error) {
	return r.scanOne(ctx,
		"SELECT "+jobColumns+" FROM content_processing_jobs WHERE id = $1", id)
}

// FindActiveByContentID returns the queued or processing job for a content,
// or nil. The enqueuer uses this to avoid duplicate work; the check is
// best-effort, not transactional with the subsequent insert.
func (r *JobRepo) FindActiveByContentID(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error) {
	return r.scanOne(ctx,
		`SELECT `+jobColumns+` FROM content_processing_jobs
		 WHERE content_id = $1 AND status IN ($2, $3)
		 ORDER BY created_at DESC LIMIT 1`,
		contentID, models.JobStatusQueued, models.JobStatusProcessing)
}

// GetLatestByContentID returns the newest job row for a content, or nil when
// no job was ever created (content fully reused from a prior transcript).
func (r *JobRepo) GetLatestByContentID(ctx context.Context, contentID uuid.UUID) (*models.ContentProcessingJob, error) {
	return r.scanOne(ctx,
		`SELECT `+jobColumns+` FROM content_processing_jobs
		 WHERE content_id = $1 ORDER BY created_at DESC LIMIT 1`,
		contentID)
}

func (r *JobRepo) scanOne(ctx context.Context, query string, args ...interface{}) (*models.ContentProcessingJob, error) {
	j := &models.ContentProcessingJob{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.ContentID, &j.Status, &j.Step, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE content_processing_jobs SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	return err
}

func (r *JobRepo) UpdateStep(ctx context.Context, id uuid.UUID, step string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE content_processing_jobs SET step = $1, updated_at = NOW() WHERE id = $2",
		step, id,
	)
	return err
}

// MarkFailed sets the terminal failed status with its error message.
func (r *JobRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE content_processing_jobs SET status = $1, error = $2, updated_at = NOW() WHERE id = $3",
		models.JobStatusFailed, errMsg, id,
	)
	return err
}
