package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytube-backend/internal/models"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// CreateYoutubeContent inserts the content row and its youtube payload in one
// transaction. The youtube_id unique constraint is what makes cross-user
// submissions converge on a single row.
func (r *ContentRepo) CreateYoutubeContent(ctx context.Context, yc *models.YoutubeContent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	contentID := uuid.New()
	_, err = tx.Exec(ctx,
		"INSERT INTO content (id, type) VALUES ($1, $2)",
		contentID, models.ContentTypeYoutube,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO youtube_content (content_id, youtube_id, title, description, thumbnail_url, source_url, transcript)
		 VALUES ($1, $2, $3, $4, $5, $6, '[]')`,
		contentID, yc.YoutubeID, yc.Title, yc.Description, yc.ThumbnailURL, yc.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert youtube content: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit content insert: %w", err)
	}

	yc.ContentID = contentID
	return nil
}

// GetByYoutubeID returns the payload for a video ID, or nil when the video has
// never been submitted.
func (r *ContentRepo) GetByYoutubeID(ctx context.Context, youtubeID string) (*models.YoutubeContent, error) {
	return r.scanOne(ctx,
		`SELECT content_id, youtube_id, title, description, thumbnail_url, source_url, transcript
		 FROM youtube_content WHERE youtube_id = $1`, youtubeID)
}

func (r *ContentRepo) GetByContentID(ctx context.Context, contentID uuid.UUID) (*models.YoutubeContent, error) {
	return r.scanOne(ctx,
		`SELECT content_id, youtube_id, title, description, thumbnail_url, source_url, transcript
		 FROM youtube_content WHERE content_id = $1`, contentID)
}

func (r *ContentRepo) scanOne(ctx context.Context, query string, arg interface{}) (*models.YoutubeContent, error) {
	yc := &models.YoutubeContent{}
	var transcriptJSON []byte

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&yc.ContentID, &yc.YoutubeID, &yc.Title, &yc.Description,
		&yc.ThumbnailURL, &yc.SourceURL, &transcriptJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(transcriptJSON) > 0 {
		if err := json.Unmarshal(transcriptJSON, &yc.Transcript); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
	}
	return yc, nil
}

// UpdateTranscript persists the chunked transcript. A non-empty transcript is
// what marks the content as ready for downstream consumers.
func (r *ContentRepo) UpdateTranscript(ctx context.Context, contentID uuid.UUID, chunks []models.TranscriptChunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		"UPDATE youtube_content SET transcript = $1 WHERE content_id = $2",
		data, contentID,
	)
	return err
}
