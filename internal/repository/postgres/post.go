package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
)

type PostRepo struct {
	DB DBTX
}

const createPost = `-- name: CreatePost
INSERT INTO posts (author_id, content)
VALUES ($1, $2)
RETURNING id, author_id, content, created_at, updated_at, deleted_at
`

func (r *PostRepo) Create(ctx context.Context, authorID int64, content string) (models.Post, error) {
	rows, _ := r.DB.Query(ctx, createPost, authorID, content)
	post, err := pgx.CollectOneRow(rows, rowToPost)
	if err != nil {
		return post, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

// viewerID is passed as a nullable parameter: for anonymous viewers the
// liked_by_viewer join never matches
const getPost = `-- name: GetPost
SELECT
	p.id, p.author_id, p.content, p.created_at, p.updated_at, p.deleted_at,
	count(l.user_id) AS like_count,
	bool_or(l.user_id = $2) IS TRUE AS liked_by_viewer
FROM posts p
LEFT JOIN likes l ON l.post_id = p.id
WHERE p.id = $1 AND p.deleted_at IS NULL
GROUP BY p.id
`

func (r *PostRepo) Get(ctx context.Context, postID int64, viewerID *int64) (repository.PostRow, error) {
	rows, _ := r.DB.Query(ctx, getPost, postID, viewerID)
	post, err := pgx.CollectOneRow(rows, rowToPostRow)

	switch {
	case err == nil:
		return post, nil
	case errors.Is(err, pgx.ErrNoRows):
		return post, apperrors.ErrPostNotFound
	default:
		return post, fmt.Errorf("db error: %w", err)
	}
}

const listPosts = `-- name: ListPosts
SELECT
	p.id, p.author_id, p.content, p.created_at, p.updated_at, p.deleted_at,
	count(l.user_id) AS like_count,
	bool_or(l.user_id = $1) IS TRUE AS liked_by_viewer
FROM posts p
LEFT JOIN likes l ON l.post_id = p.id
WHERE p.deleted_at IS NULL
GROUP BY p.id
ORDER BY p.created_at DESC, p.id DESC
LIMIT $2 OFFSET $3
`

func (r *PostRepo) List(ctx context.Context, viewerID *int64, limit int, offset int) ([]repository.PostRow, error) {
	rows, _ := r.DB.Query(ctx, listPosts, viewerID, limit, offset)
	posts, err := pgx.CollectRows(rows, rowToPostRow)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

const updatePost = `-- name: UpdatePost
UPDATE posts
SET content = $2, updated_at = $3
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, author_id, content, created_at, updated_at, deleted_at
`

func (r *PostRepo) Update(ctx context.Context, postID int64, content string) (models.Post, error) {
	rows, _ := r.DB.Query(ctx, updatePost, postID, content, time.Now())
	post, err := pgx.CollectOneRow(rows, rowToPost)

	switch {
	case err == nil:
		return post, nil
	case errors.Is(err, pgx.ErrNoRows):
		return post, apperrors.ErrPostNotFound
	default:
		return post, fmt.Errorf("db error: %w", err)
	}
}

const softDeletePost = `-- name: SoftDeletePost
UPDATE posts
SET deleted_at = COALESCE(deleted_at, $2)
WHERE id = $1
`

func (r *PostRepo) SoftDelete(ctx context.Context, postID int64) error {
	tag, err := r.DB.Exec(ctx, softDeletePost, postID, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

const likePost = `-- name: LikePost
INSERT INTO likes (post_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *PostRepo) Like(ctx context.Context, postID int64, userID int64) error {
	_, err := r.DB.Exec(ctx, likePost, postID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrPostNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const unlikePost = `-- name: UnlikePost
DELETE FROM likes
WHERE post_id = $1 AND user_id = $2
`

func (r *PostRepo) Unlike(ctx context.Context, postID int64, userID int64) error {
	_, err := r.DB.Exec(ctx, unlikePost, postID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowToPost(row pgx.CollectableRow) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	return p, err
}

func rowToPostRow(row pgx.CollectableRow) (repository.PostRow, error) {
	var p repository.PostRow
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &p.LikeCount, &p.LikedByViewer)
	return p, err
}
