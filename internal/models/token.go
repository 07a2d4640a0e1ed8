package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken row as stored in the database.
// Rows are never deleted: revoked ones remain for audit.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    int64
	Token     string
	Revoked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by the token manager on register, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Identity of a verified caller as the gateway forwards it downstream
type Identity struct {
	UserID   int64
	Username string
}
