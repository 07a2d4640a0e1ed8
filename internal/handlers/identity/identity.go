// Package identity extracts the caller identity that the gateway forwards
// in trust headers. Downstream services never re-verify token signatures:
// these headers are the sole trust anchor, so extraction is an explicit
// function call at the boundary instead of ambient framework magic.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
)

// Trust headers injected by the gateway after token verification
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-Username"
)

// FromHeaders parses the trust headers into an Identity.
// Missing or malformed headers mean the request never passed the gateway's
// verifier, which on a required-auth endpoint is an authorization failure.
func FromHeaders(h http.Header) (models.Identity, error) {
	rawID := h.Get(HeaderUserID)
	username := h.Get(HeaderUsername)
	if rawID == "" || username == "" {
		return models.Identity{}, apperrors.ErrIdentityRequired
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: malformed %s header", apperrors.ErrIdentityRequired, HeaderUserID)
	}

	return models.Identity{UserID: userID, Username: username}, nil
}

// Optional returns the identity if the headers are present and nil otherwise.
// Endpoints with optional auth treat an absent identity as anonymous, not as an error.
func Optional(h http.Header) *models.Identity {
	id, err := FromHeaders(h)
	if err != nil {
		return nil
	}
	return &id
}

// Set writes the identity into headers, the gateway's half of the contract
func Set(h http.Header, id models.Identity) {
	h.Set(HeaderUserID, strconv.FormatInt(id.UserID, 10))
	h.Set(HeaderUsername, id.Username)
}

// Strip drops any identity headers a client may have tried to smuggle in.
// The gateway calls it on every inbound request before verification.
func Strip(h http.Header) {
	h.Del(HeaderUserID)
	h.Del(HeaderUsername)
}

type ctxKey string

const identityKey ctxKey = "identity"

// NewContext returns a context carrying the identity
func NewContext(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity stored by the auth middleware
func FromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}
