package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytube-backend/internal/models"
)

const defaultSpaceName = "My Space"

type SpaceRepo struct {
	pool *pgxpool.Pool
}

func NewSpaceRepo(pool *pgxpool.Pool) *SpaceRepo {
	return &SpaceRepo{pool: pool}
}

// EnsureDefault resolves the user's default space, creating it on first use.
func (r *SpaceRepo) EnsureDefault(ctx context.Context, userID uuid.UUID) (*models.Space, error) {
	s := &models.Space{UserID: userID, Name: defaultSpaceName}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO spaces (id, user_id, name) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`,
		uuid.New(), userID, defaultSpaceName,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetOwned returns the space only when it belongs to the user, else nil.
func (r *SpaceRepo) GetOwned(ctx context.Context, spaceID, userID uuid.UUID) (*models.Space, error) {
	s := &models.Space{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, name, created_at FROM spaces WHERE id = $1 AND user_id = $2",
		spaceID, userID,
	).Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AddContent places a content into a space; idempotent on (space_id, content_id).
func (r *SpaceRepo) AddContent(ctx context.Context, spaceID, contentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO space_content (space_id, content_id) VALUES ($1, $2)
		 ON CONFLICT (space_id, content_id) DO NOTHING`,
		spaceID, contentID,
	)
	return err
}
