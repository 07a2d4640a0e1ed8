package user

import (
	"context"
	"fmt"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
)

// ProfileInfo is a public profile together with follow counters
type ProfileInfo struct {
	models.Profile
	Followers int64
	Following int64
}

type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (ProfileInfo, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return ProfileInfo{}, err
	}

	followers, following, err := s.storage.Follow().Counts(ctx, userID)
	if err != nil {
		return ProfileInfo{}, fmt.Errorf("error while counting follows. Err: %w", err)
	}

	return ProfileInfo{
		Profile:   user.Profile(),
		Followers: followers,
		Following: following,
	}, nil
}

func (s *Service) Follow(ctx context.Context, followerID int64, followeeID int64) error {
	if followerID == followeeID {
		return apperrors.ErrSelfFollow
	}

	// The followee must exist and be active
	if _, err := s.storage.User().GetUserByID(ctx, followeeID); err != nil {
		return err
	}

	return s.storage.Follow().Follow(ctx, followerID, followeeID)
}

func (s *Service) Unfollow(ctx context.Context, followerID int64, followeeID int64) error {
	return s.storage.Follow().Unfollow(ctx, followerID, followeeID)
}

func (s *Service) ListFollowers(ctx context.Context, userID int64) ([]models.Profile, error) {
	return s.storage.Follow().ListFollowers(ctx, userID)
}

func (s *Service) ListFollowing(ctx context.Context, userID int64) ([]models.Profile, error) {
	return s.storage.Follow().ListFollowing(ctx, userID)
}
