package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/handlers/render"
	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/service/auth"
)

type authService interface {
	Register(ctx context.Context, arg auth.RegisterParams) (auth.Session, error)
	Login(ctx context.Context, usernameOrEmail string, password string) (auth.Session, error)
	Refresh(ctx context.Context, refresh string) (auth.Session, error)
	Logout(ctx context.Context, refresh string) error
	AccessTokenTTL() int64
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(auth authService, l logger.Logger) *AuthHandler {
	return &AuthHandler{authService: auth, logger: l}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

// TokenResponse is the payload of every successful auth operation
type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	UserID       int64    `json:"userId"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
}

func (h *AuthHandler) tokenResponse(s auth.Session) TokenResponse {
	return TokenResponse{
		AccessToken:  s.Pair.Access.Value,
		RefreshToken: s.Pair.Refresh.Value,
		TokenType:    "Bearer",
		ExpiresIn:    h.authService.AccessTokenTTL(),
		UserID:       s.User.ID,
		Username:     s.User.Username,
		Email:        s.User.Email,
		Roles:        []string{s.User.Role},
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username  string `json:"username" validate:"required,min=2,max=50"`
		Email     string `json:"email" validate:"required,email,max=100"`
		Password  string `json:"password" validate:"required,min=8,max=100"`
		FirstName string `json:"firstName" validate:"max=50"`
		LastName  string `json:"lastName" validate:"max=50"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	session, err := h.authService.Register(r.Context(), auth.RegisterParams{
		Username:  data.Username,
		Email:     data.Email,
		Password:  data.Password,
		FirstName: data.FirstName,
		LastName:  data.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Username or email already taken", http.StatusConflict)
		default:
			h.logger.Error("Registration failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONStatus(w, h.tokenResponse(session), http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
		Password        string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	session, err := h.authService.Login(r.Context(), data.UsernameOrEmail, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBadCredentials):
			// One message for unknown user and wrong password alike
			render.ServiceError(w, "Bad credentials", http.StatusUnauthorized)
		default:
			h.logger.Error("Login failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, h.tokenResponse(session))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	session, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		// Log the real cause, answer with one uniform message: reuse of a
		// revoked token must look exactly like a token that never existed
		h.logger.Warn("Refresh rejected", "error", err)
		render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	render.JSON(w, h.tokenResponse(session))
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.authService.Logout(r.Context(), data.RefreshToken); err != nil {
		h.logger.Error("Logout failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.NoContent(w)
}
