package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
)

type FollowRepo struct {
	DB DBTX
}

const createFollow = `-- name: CreateFollow
INSERT INTO follows (follower_id, followee_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *FollowRepo) Follow(ctx context.Context, followerID int64, followeeID int64) error {
	_, err := r.DB.Exec(ctx, createFollow, followerID, followeeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteFollow = `-- name: DeleteFollow
DELETE FROM follows
WHERE follower_id = $1 AND followee_id = $2
`

func (r *FollowRepo) Unfollow(ctx context.Context, followerID int64, followeeID int64) error {
	_, err := r.DB.Exec(ctx, deleteFollow, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listFollowers = `-- name: ListFollowers
SELECT u.id, u.username, u.first_name, u.last_name
FROM follows f
JOIN users u ON u.id = f.follower_id
WHERE f.followee_id = $1 AND u.deleted_at IS NULL
ORDER BY f.created_at DESC
`

func (r *FollowRepo) ListFollowers(ctx context.Context, userID int64) ([]models.Profile, error) {
	rows, _ := r.DB.Query(ctx, listFollowers, userID)
	return collectProfiles(rows)
}

const listFollowing = `-- name: ListFollowing
SELECT u.id, u.username, u.first_name, u.last_name
FROM follows f
JOIN users u ON u.id = f.followee_id
WHERE f.follower_id = $1 AND u.deleted_at IS NULL
ORDER BY f.created_at DESC
`

func (r *FollowRepo) ListFollowing(ctx context.Context, userID int64) ([]models.Profile, error) {
	rows, _ := r.DB.Query(ctx, listFollowing, userID)
	return collectProfiles(rows)
}

const countFollows = `-- name: CountFollows
SELECT
	count(*) FILTER (WHERE followee_id = $1) AS followers,
	count(*) FILTER (WHERE follower_id = $1) AS following
FROM follows
`

func (r *FollowRepo) Counts(ctx context.Context, userID int64) (followers int64, following int64, err error) {
	rows, _ := r.DB.Query(ctx, countFollows, userID)
	counts, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) ([2]int64, error) {
		var c [2]int64
		err := row.Scan(&c[0], &c[1])
		return c, err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return counts[0], counts[1], nil
}

func collectProfiles(rows pgx.Rows) ([]models.Profile, error) {
	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Profile, error) {
		var p models.Profile
		err := row.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profiles, nil
}
