package middleware

import (
	"net/http"

	"github.com/communityplatform/backend/internal/handlers/identity"
	"github.com/communityplatform/backend/internal/handlers/render"
)

// RequireIdentity rejects requests without valid trust headers and puts
// the identity into the request context for handlers downstream.
// Must sit behind the gateway: the headers are trusted unconditionally.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identity.FromHeaders(r.Header)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := identity.NewContext(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
