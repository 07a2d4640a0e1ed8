package repository

import (
	"context"

	"github.com/communityplatform/backend/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
	FirstName      string
	LastName       string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the username or email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get active user by id or by username/email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	GetUserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token no matter if it revoked or expired
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke token with atomic conditional update
	// Exactly one caller may revoke a token: the second one
	// must get apperrors.ErrRefreshTokenRevoked
	Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke every not yet revoked token of the user, return how many were revoked
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}

// Follow repository interface
type FollowRepo interface {
	// Follow is idempotent: repeating an existing follow changes nothing
	Follow(ctx context.Context, followerID int64, followeeID int64) error
	Unfollow(ctx context.Context, followerID int64, followeeID int64) error

	ListFollowers(ctx context.Context, userID int64) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID int64) ([]models.Profile, error)

	Counts(ctx context.Context, userID int64) (followers int64, following int64, err error)
}

// Post row together with data that depends on who is looking at it.
// LikedByViewer is always false for anonymous viewers.
type PostRow struct {
	models.Post
	LikeCount     int64
	LikedByViewer bool
}

type PostRepo interface {
	Create(ctx context.Context, authorID int64, content string) (models.Post, error)

	// Get and List return active posts only
	// viewerID may be nil for anonymous requests
	Get(ctx context.Context, postID int64, viewerID *int64) (PostRow, error)
	List(ctx context.Context, viewerID *int64, limit int, offset int) ([]PostRow, error)

	// Update the content of an active post
	Update(ctx context.Context, postID int64, content string) (models.Post, error)

	// SoftDelete keeps the row but hides it from Get and List
	SoftDelete(ctx context.Context, postID int64) error

	// Like is idempotent, Unlike of a missing like is a no-op
	Like(ctx context.Context, postID int64, userID int64) error
	Unlike(ctx context.Context, postID int64, userID int64) error
}

type CommentRepo interface {
	Create(ctx context.Context, postID int64, authorID int64, content string) (models.Comment, error)
	Get(ctx context.Context, commentID int64) (models.Comment, error)
	ListForPost(ctx context.Context, postID int64) ([]models.Comment, error)
	SoftDelete(ctx context.Context, commentID int64) error
}

// Storage aggregates all repositories and runs them in one transaction if needed
type Storage interface {
	User() UserRepo
	RefreshToken() RefreshTokenRepo
	Follow() FollowRepo
	Post() PostRepo
	Comment() CommentRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
