package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
	"github.com/communityplatform/backend/internal/repository/postgres"
	"github.com/communityplatform/backend/internal/testutil"
)

func Test_UserService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *Service, storage repository.Storage)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage), storage)
		})
	}

	createUser := func(t *testing.T, storage repository.Storage, username string) models.User {
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Username:       username,
			Email:          username + "@example.com",
			HashedPassword: "hash",
			FirstName:      "First",
			LastName:       "Last",
		})
		require.NoError(t, err)
		return user
	}

	t.Run("GetProfile", func(t *testing.T) {
		t.Run("profile with counters", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
				alice := createUser(t, storage, "alice")
				bob := createUser(t, storage, "bob")
				require.NoError(t, s.Follow(t.Context(), bob.ID, alice.ID))

				info, err := s.GetProfile(t.Context(), alice.ID)

				require.NoError(t, err)
				assert.Equal(t, "alice", info.Username)
				assert.Equal(t, "First", info.FirstName)
				assert.Equal(t, int64(1), info.Followers)
				assert.Equal(t, int64(0), info.Following)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
				_, err := s.GetProfile(t.Context(), 99999999)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("Follow", func(t *testing.T) {
		t.Run("follow ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
				alice := createUser(t, storage, "alice")
				bob := createUser(t, storage, "bob")

				require.NoError(t, s.Follow(t.Context(), alice.ID, bob.ID))

				following, err := s.ListFollowing(t.Context(), alice.ID)
				require.NoError(t, err)
				require.Len(t, following, 1)
				assert.Equal(t, bob.ID, following[0].ID)
			})
		})

		t.Run("self follow rejected", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
				alice := createUser(t, storage, "alice")

				err := s.Follow(t.Context(), alice.ID, alice.ID)

				require.ErrorIs(t, err, apperrors.ErrSelfFollow)
			})
		})

		t.Run("unknown followee rejected", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
				alice := createUser(t, storage, "alice")

				err := s.Follow(t.Context(), alice.ID, 99999999)

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("Unfollow", func(t *testing.T) {
		withTx(pg.Pool, t, func(s *Service, storage repository.Storage) {
			alice := createUser(t, storage, "alice")
			bob := createUser(t, storage, "bob")
			require.NoError(t, s.Follow(t.Context(), alice.ID, bob.ID))

			require.NoError(t, s.Unfollow(t.Context(), alice.ID, bob.ID))

			followers, err := s.ListFollowers(t.Context(), bob.ID)
			require.NoError(t, err)
			assert.Empty(t, followers)
		})
	})
}
