package handlers

import (
	"net/http"

	"github.com/communityplatform/backend/internal/handlers/middleware"
	"github.com/communityplatform/backend/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewUserServiceRouter wires auth, profile and follow endpoints.
// Auth endpoints are public; the rest expects gateway trust headers.
func NewUserServiceRouter(auth *AuthHandler, users *UserHandler, l logger.Logger) http.Handler {
	withAuth := middleware.RequireIdentity()

	root := http.NewServeMux()
	root.Handle("/api/v1/auth/", http.StripPrefix("/api/v1/auth", auth.Handler()))

	root.HandleFunc("GET /api/v1/users/{id}", users.getProfile)
	root.Handle("GET /api/v1/users/me", withAuth(http.HandlerFunc(users.me)))
	root.HandleFunc("GET /api/v1/users/{id}/followers", users.listFollowers)
	root.HandleFunc("GET /api/v1/users/{id}/following", users.listFollowing)

	root.Handle("POST /api/v1/follows/{id}", withAuth(http.HandlerFunc(users.follow)))
	root.Handle("DELETE /api/v1/follows/{id}", withAuth(http.HandlerFunc(users.unfollow)))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

// NewContentServiceRouter wires post, like and comment endpoints.
// Read endpoints take an optional identity, write endpoints require one.
func NewContentServiceRouter(posts *PostHandler, l logger.Logger) http.Handler {
	withAuth := middleware.RequireIdentity()

	root := http.NewServeMux()

	root.Handle("POST /api/v1/posts", withAuth(http.HandlerFunc(posts.create)))
	root.HandleFunc("GET /api/v1/posts", posts.list)
	root.HandleFunc("GET /api/v1/posts/{id}", posts.get)
	root.Handle("PUT /api/v1/posts/{id}", withAuth(http.HandlerFunc(posts.update)))
	root.Handle("DELETE /api/v1/posts/{id}", withAuth(http.HandlerFunc(posts.delete)))

	root.Handle("POST /api/v1/posts/{id}/likes", withAuth(http.HandlerFunc(posts.like)))
	root.Handle("DELETE /api/v1/posts/{id}/likes", withAuth(http.HandlerFunc(posts.unlike)))

	root.Handle("POST /api/v1/posts/{id}/comments", withAuth(http.HandlerFunc(posts.addComment)))
	root.HandleFunc("GET /api/v1/posts/{id}/comments", posts.listComments)
	root.Handle("DELETE /api/v1/comments/{id}", withAuth(http.HandlerFunc(posts.deleteComment)))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}
