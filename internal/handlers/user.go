package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/handlers/identity"
	"github.com/communityplatform/backend/internal/handlers/render"
	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/service/user"
)

type userService interface {
	GetProfile(ctx context.Context, userID int64) (user.ProfileInfo, error)
	Follow(ctx context.Context, followerID int64, followeeID int64) error
	Unfollow(ctx context.Context, followerID int64, followeeID int64) error
	ListFollowers(ctx context.Context, userID int64) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID int64) ([]models.Profile, error)
}

type UserHandler struct {
	userService userService
	logger      logger.Logger
}

func NewUser(users userService, l logger.Logger) *UserHandler {
	return &UserHandler{userService: users, logger: l}
}

type ProfileResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	info, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("Profile lookup failed", "user_id", userID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ProfileResponse{
		ID:        info.ID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Followers: info.Followers,
		Following: info.Following,
	})
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	// Middleware guarantees the identity is set
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := h.userService.GetProfile(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("Profile lookup failed", "user_id", id.UserID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, ProfileResponse{
		ID:        info.ID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Followers: info.Followers,
		Following: info.Following,
	})
}

func (h *UserHandler) follow(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	followeeID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	err = h.userService.Follow(r.Context(), id.UserID, followeeID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSelfFollow):
			render.ServiceError(w, "Can't follow yourself", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("Follow failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.NoContent(w)
}

func (h *UserHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	followeeID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.userService.Unfollow(r.Context(), id.UserID, followeeID); err != nil {
		h.logger.Error("Unfollow failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.NoContent(w)
}

func (h *UserHandler) listFollowers(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.userService.ListFollowers)
}

func (h *UserHandler) listFollowing(w http.ResponseWriter, r *http.Request) {
	h.listFollows(w, r, h.userService.ListFollowing)
}

func (h *UserHandler) listFollows(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID int64) ([]models.Profile, error)) {
	userID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	profiles, err := list(r.Context(), userID)
	if err != nil {
		h.logger.Error("Follow list failed", "user_id", userID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, profiles)
}

// pathID parses an int64 path segment registered with the given name
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
