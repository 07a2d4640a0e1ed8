package post

import (
	"context"
	"fmt"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ProfileFetcher resolves author profiles for enrichment.
// A nil result means the profile is unavailable right now, which is fine.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID int64) *models.Profile
}

// PostView is a post as seen by a concrete (maybe anonymous) viewer
type PostView struct {
	models.Post
	LikeCount int64
	LikedByMe bool
	Author    *models.Profile // nil when user-service could not be reached
}

type CommentView struct {
	models.Comment
	Author *models.Profile
}

type Service struct {
	storage  repository.Storage
	profiles ProfileFetcher
}

func NewService(storage repository.Storage, profiles ProfileFetcher) *Service {
	return &Service{storage: storage, profiles: profiles}
}

func (s *Service) Create(ctx context.Context, authorID int64, content string) (models.Post, error) {
	return s.storage.Post().Create(ctx, authorID, content)
}

func (s *Service) Get(ctx context.Context, viewer *models.Identity, postID int64) (PostView, error) {
	row, err := s.storage.Post().Get(ctx, postID, viewerID(viewer))
	if err != nil {
		return PostView{}, err
	}
	return s.toView(ctx, row), nil
}

func (s *Service) List(ctx context.Context, viewer *models.Identity, limit int, offset int) ([]PostView, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.storage.Post().List(ctx, viewerID(viewer), limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.toView(ctx, row))
	}
	return views, nil
}

// Update changes post content, owner only
func (s *Service) Update(ctx context.Context, userID int64, postID int64, content string) (models.Post, error) {
	if err := s.checkPostOwner(ctx, userID, postID); err != nil {
		return models.Post{}, err
	}
	return s.storage.Post().Update(ctx, postID, content)
}

// Delete soft-deletes the post, owner only
func (s *Service) Delete(ctx context.Context, userID int64, postID int64) error {
	if err := s.checkPostOwner(ctx, userID, postID); err != nil {
		return err
	}
	return s.storage.Post().SoftDelete(ctx, postID)
}

func (s *Service) Like(ctx context.Context, userID int64, postID int64) error {
	// Make sure the post exists and is active before touching likes
	if _, err := s.storage.Post().Get(ctx, postID, nil); err != nil {
		return err
	}
	return s.storage.Post().Like(ctx, postID, userID)
}

func (s *Service) Unlike(ctx context.Context, userID int64, postID int64) error {
	return s.storage.Post().Unlike(ctx, postID, userID)
}

func (s *Service) AddComment(ctx context.Context, authorID int64, postID int64, content string) (models.Comment, error) {
	if _, err := s.storage.Post().Get(ctx, postID, nil); err != nil {
		return models.Comment{}, err
	}
	return s.storage.Comment().Create(ctx, postID, authorID, content)
}

func (s *Service) ListComments(ctx context.Context, postID int64) ([]CommentView, error) {
	if _, err := s.storage.Post().Get(ctx, postID, nil); err != nil {
		return nil, err
	}

	comments, err := s.storage.Comment().ListForPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{
			Comment: c,
			Author:  s.profiles.GetProfile(ctx, c.AuthorID),
		})
	}
	return views, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID int64, commentID int64) error {
	comment, err := s.storage.Comment().Get(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return apperrors.ErrNotOwner
	}
	return s.storage.Comment().SoftDelete(ctx, commentID)
}

func (s *Service) checkPostOwner(ctx context.Context, userID int64, postID int64) error {
	row, err := s.storage.Post().Get(ctx, postID, nil)
	if err != nil {
		return err
	}
	if row.AuthorID != userID {
		return fmt.Errorf("post %d: %w", postID, apperrors.ErrNotOwner)
	}
	return nil
}

func (s *Service) toView(ctx context.Context, row repository.PostRow) PostView {
	return PostView{
		Post:      row.Post,
		LikeCount: row.LikeCount,
		LikedByMe: row.LikedByViewer,
		Author:    s.profiles.GetProfile(ctx, row.AuthorID),
	}
}

func viewerID(viewer *models.Identity) *int64 {
	if viewer == nil {
		return nil
	}
	return &viewer.UserID
}
