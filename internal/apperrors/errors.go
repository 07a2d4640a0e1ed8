package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned for both unknown user and wrong password so responses
	// never reveal which one failed
	ErrBadCredentials = errors.New("bad credentials")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccessTokenInvalid = errors.New("access token is invalid")

	ErrIdentityRequired = errors.New("identity headers required but not set")

	ErrSelfFollow = errors.New("user can't follow himself")

	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("resource belongs to different user")
)
