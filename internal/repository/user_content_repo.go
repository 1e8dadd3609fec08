package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserContentRepo struct {
	pool *pgxpool.Pool
}

func NewUserContentRepo(pool *pgxpool.Pool) *UserContentRepo {
	return &UserContentRepo{pool: pool}
}

// Grant gives the user access to a content item. A repeat submission of the
// same video by the same user lands here as a no-op.
func (r *UserContentRepo) Grant(ctx context.Context, userID, contentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_content (user_id, content_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, content_id) DO NOTHING`,
		userID, contentID,
	)
	return err
}

func (r *UserContentRepo) Exists(ctx context.Context, userID, contentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_content WHERE user_id = $1 AND content_id = $2)",
		userID, contentID,
	).Scan(&exists)
	return exists, err
}
