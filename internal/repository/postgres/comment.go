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
)

type CommentRepo struct {
	DB DBTX
}

const createComment = `-- name: CreateComment
INSERT INTO comments (post_id, author_id, content)
VALUES ($1, $2, $3)
RETURNING id, post_id, author_id, content, created_at, updated_at, deleted_at
`

func (r *CommentRepo) Create(ctx context.Context, postID int64, authorID int64, content string) (models.Comment, error) {
	rows, _ := r.DB.Query(ctx, createComment, postID, authorID, content)
	comment, err := pgx.CollectOneRow(rows, rowToComment)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return comment, apperrors.ErrPostNotFound
		}
		return comment, fmt.Errorf("db error: %w", err)
	}

	return comment, nil
}

const getComment = `-- name: GetComment
SELECT id, post_id, author_id, content, created_at, updated_at, deleted_at
FROM comments
WHERE id = $1 AND deleted_at IS NULL
`

func (r *CommentRepo) Get(ctx context.Context, commentID int64) (models.Comment, error) {
	rows, _ := r.DB.Query(ctx, getComment, commentID)
	comment, err := pgx.CollectOneRow(rows, rowToComment)

	switch {
	case err == nil:
		return comment, nil
	case errors.Is(err, pgx.ErrNoRows):
		return comment, apperrors.ErrCommentNotFound
	default:
		return comment, fmt.Errorf("db error: %w", err)
	}
}

const listCommentsForPost = `-- name: ListCommentsForPost
SELECT id, post_id, author_id, content, created_at, updated_at, deleted_at
FROM comments
WHERE post_id = $1 AND deleted_at IS NULL
ORDER BY created_at, id
`

func (r *CommentRepo) ListForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, _ := r.DB.Query(ctx, listCommentsForPost, postID)
	comments, err := pgx.CollectRows(rows, rowToComment)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comments, nil
}

const softDeleteComment = `-- name: SoftDeleteComment
UPDATE comments
SET deleted_at = COALESCE(deleted_at, $2)
WHERE id = $1
`

func (r *CommentRepo) SoftDelete(ctx context.Context, commentID int64) error {
	tag, err := r.DB.Exec(ctx, softDeleteComment, commentID, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}

func rowToComment(row pgx.CollectableRow) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	return c, err
}
