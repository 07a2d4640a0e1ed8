package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/handlers/identity"
	"github.com/communityplatform/backend/internal/handlers/render"
	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/service/post"
)

type postService interface {
	Create(ctx context.Context, authorID int64, content string) (models.Post, error)
	Get(ctx context.Context, viewer *models.Identity, postID int64) (post.PostView, error)
	List(ctx context.Context, viewer *models.Identity, limit int, offset int) ([]post.PostView, error)
	Update(ctx context.Context, userID int64, postID int64, content string) (models.Post, error)
	Delete(ctx context.Context, userID int64, postID int64) error
	Like(ctx context.Context, userID int64, postID int64) error
	Unlike(ctx context.Context, userID int64, postID int64) error
	AddComment(ctx context.Context, authorID int64, postID int64, content string) (models.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]post.CommentView, error)
	DeleteComment(ctx context.Context, userID int64, commentID int64) error
}

type PostHandler struct {
	postService postService
	logger      logger.Logger
}

func NewPost(posts postService, l logger.Logger) *PostHandler {
	return &PostHandler{postService: posts, logger: l}
}

type PostResponse struct {
	ID        int64           `json:"id"`
	AuthorID  int64           `json:"authorId"`
	Author    *models.Profile `json:"author,omitempty"`
	Content   string          `json:"content"`
	LikeCount int64           `json:"likeCount"`
	LikedByMe bool            `json:"likedByMe"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CommentResponse struct {
	ID        int64           `json:"id"`
	PostID    int64           `json:"postId"`
	AuthorID  int64           `json:"authorId"`
	Author    *models.Profile `json:"author,omitempty"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toPostResponse(v post.PostView) PostResponse {
	return PostResponse{
		ID:        v.ID,
		AuthorID:  v.AuthorID,
		Author:    v.Author,
		Content:   v.Content,
		LikeCount: v.LikeCount,
		LikedByMe: v.LikedByMe,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type CreateRequest struct {
		Content string `json:"content" validate:"required,max=5000"`
	}

	data, err := render.BindAndValidate[CreateRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.postService.Create(r.Context(), id.UserID, data.Content)
	if err != nil {
		h.logger.Error("Post creation failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONStatus(w, PostResponse{
		ID:        created.ID,
		AuthorID:  created.AuthorID,
		Content:   created.Content,
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	}, http.StatusCreated)
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	// Identity is optional here: anonymous viewers just see likedByMe=false
	views, err := h.postService.List(r.Context(), identity.Optional(r.Header), limit, offset)
	if err != nil {
		h.logger.Error("Post listing failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	posts := make([]PostResponse, 0, len(views))
	for _, v := range views {
		posts = append(posts, toPostResponse(v))
	}
	render.JSON(w, posts)
}

func (h *PostHandler) get(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	view, err := h.postService.Get(r.Context(), identity.Optional(r.Header), postID)
	if err != nil {
		h.renderPostError(w, err)
		return
	}

	render.JSON(w, toPostResponse(view))
}

func (h *PostHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	type UpdateRequest struct {
		Content string `json:"content" validate:"required,max=5000"`
	}

	data, err := render.BindAndValidate[UpdateRequest](w, r)
	if err != nil {
		return
	}

	updated, err := h.postService.Update(r.Context(), id.UserID, postID, data.Content)
	if err != nil {
		h.renderPostError(w, err)
		return
	}

	render.JSON(w, PostResponse{
		ID:        updated.ID,
		AuthorID:  updated.AuthorID,
		Content:   updated.Content,
		CreatedAt: updated.CreatedAt,
		UpdatedAt: updated.UpdatedAt,
	})
}

func (h *PostHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.postService.Delete(r.Context(), id.UserID, postID); err != nil {
		h.renderPostError(w, err)
		return
	}

	render.NoContent(w)
}

func (h *PostHandler) like(w http.ResponseWriter, r *http.Request) {
	h.withPostAndIdentity(w, r, h.postService.Like)
}

func (h *PostHandler) unlike(w http.ResponseWriter, r *http.Request) {
	h.withPostAndIdentity(w, r, h.postService.Unlike)
}

func (h *PostHandler) withPostAndIdentity(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID int64, postID int64) error) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := fn(r.Context(), id.UserID, postID); err != nil {
		h.renderPostError(w, err)
		return
	}

	render.NoContent(w)
}

func (h *PostHandler) addComment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	type CommentRequest struct {
		Content string `json:"content" validate:"required,max=1000"`
	}

	data, err := render.BindAndValidate[CommentRequest](w, r)
	if err != nil {
		return
	}

	comment, err := h.postService.AddComment(r.Context(), id.UserID, postID, data.Content)
	if err != nil {
		h.renderPostError(w, err)
		return
	}

	render.JSONStatus(w, CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}, http.StatusCreated)
}

func (h *PostHandler) listComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	views, err := h.postService.ListComments(r.Context(), postID)
	if err != nil {
		h.renderPostError(w, err)
		return
	}

	comments := make([]CommentResponse, 0, len(views))
	for _, v := range views {
		comments = append(comments, CommentResponse{
			ID:        v.ID,
			PostID:    v.PostID,
			AuthorID:  v.AuthorID,
			Author:    v.Author,
			Content:   v.Content,
			CreatedAt: v.CreatedAt,
		})
	}
	render.JSON(w, comments)
}

func (h *PostHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	commentID, err := pathID(r, "id")
	if err != nil {
		render.ServiceError(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	if err := h.postService.DeleteComment(r.Context(), id.UserID, commentID); err != nil {
		h.renderPostError(w, err)
		return
	}

	render.NoContent(w)
}

func (h *PostHandler) renderPostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPostNotFound):
		render.ServiceError(w, "Post not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCommentNotFound):
		render.ServiceError(w, "Comment not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrNotOwner):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	default:
		h.logger.Error("Post operation failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
