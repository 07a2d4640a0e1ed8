// Package gateway is the single place where access tokens are verified.
// Valid claims are forwarded to downstream services as trust headers;
// downstream services accept those headers without re-verification.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/communityplatform/backend/internal/handlers/identity"
	"github.com/communityplatform/backend/internal/handlers/middleware"
	"github.com/communityplatform/backend/internal/handlers/render"
	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/models"
)

// Path prefix that bypasses verification: register, login, refresh and
// logout must be reachable without a token
const publicAuthPrefix = "/api/v1/auth/"

// Verifier checks an access token and returns the identity it proves
type Verifier interface {
	ParseAccess(access string) (models.Identity, error)
}

type Config struct {
	// Downstream service base addresses, e.g. http://127.0.0.1:8081
	UserServiceAddr    string
	ContentServiceAddr string
}

// NewHandler builds the gateway routing table:
//
//	/api/v1/auth/*                    -> user-service    (public)
//	/api/v1/users/*, /api/v1/follows/* -> user-service   (token required)
//	/api/v1/posts/*, /api/v1/comments/* -> content-service (token required)
func NewHandler(v Verifier, cfg Config, l logger.Logger) (http.Handler, error) {
	userProxy, err := newProxy(cfg.UserServiceAddr, l)
	if err != nil {
		return nil, fmt.Errorf("user-service address: %w", err)
	}
	contentProxy, err := newProxy(cfg.ContentServiceAddr, l)
	if err != nil {
		return nil, fmt.Errorf("content-service address: %w", err)
	}

	verified := verify(v, l)

	mux := http.NewServeMux()
	mux.Handle(publicAuthPrefix, userProxy)
	mux.Handle("/api/v1/users/", verified(userProxy))
	mux.Handle("/api/v1/follows/", verified(userProxy))
	mux.Handle("/api/v1/posts", verified(contentProxy))
	mux.Handle("/api/v1/posts/", verified(contentProxy))
	mux.Handle("/api/v1/comments/", verified(contentProxy))

	return chain(mux,
		stripTrustHeaders,
		middleware.LoggerMiddleware(l),
	), nil
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// stripTrustHeaders drops identity headers from every inbound request.
// Whatever a client sends there is forged: only the gateway itself may
// set them, and only after verification.
func stripTrustHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity.Strip(r.Header)
		next.ServeHTTP(w, r)
	})
}

// verify requires a valid Bearer token and injects the verified identity
// as trust headers on the forwarded request. Failures are logged with the
// cause but answered with a uniform 401; the raw token is never logged.
func verify(v Verifier, l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				l.Warn("Missing or malformed Authorization header", "path", r.URL.Path)
				render.ServiceError(w, "Missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			id, err := v.ParseAccess(token)
			if err != nil {
				l.Warn("Access token rejected", "path", r.URL.Path, "error", err)
				render.ServiceError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			identity.Set(r.Header, id)
			next.ServeHTTP(w, r)
		})
	}
}

func newProxy(addr string, l logger.Logger) (http.Handler, error) {
	target, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		l.Error("Downstream service unreachable", "target", target.Host, "error", err)
		render.ServiceError(w, "Service unavailable", http.StatusBadGateway)
	}

	return proxy, nil
}
