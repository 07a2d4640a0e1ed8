package auth

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/repository/postgres"
	"github.com/communityplatform/backend/internal/service/auth/tokenmanager"
	"github.com/communityplatform/backend/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	registerParams := RegisterParams{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "pwd",
		FirstName: "Alice",
		LastName:  "Liddell",
	}

	// Begin new db transaction and create new auth Service
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *Service)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(
				tokenmanager.Config{
					SecretKey:  "test-secret-key",
					Issuer:     "test-issuer",
					AccessTTL:  accessTTL,
					RefreshTTL: refreshTTL,
				},
				storage.RefreshToken(),
			)
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tokenManager, storage)
			require.NoError(t, err, "auth service could't be started", err)

			fn(s)
		})
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil)
		require.Error(t, err, "nil token manager and storage must not be accepted")

		withTx(pg.Pool, time.Minute, time.Hour, t, func(s *Service) {
			require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
			require.Equal(t, int64(60), s.AccessTokenTTL(), "access TTL should be reported in seconds")
		})
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				session, err := s.Register(t.Context(), registerParams)

				require.NoError(t, err, "registering new user should be ok")
				require.Equal(t, "alice", session.User.Username)
				require.NotEqual(t, "pwd", session.User.HashedPassword, "plaintext password must never be stored")
				require.NotEmpty(t, session.Pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, session.Pair.Refresh.Value, "refresh token should not be empty")
			})
		})

		t.Run("fail if username taken", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err, "no error has should happen if user not exists")

				again := registerParams
				again.Email = "other@example.com"
				_, err = s.Register(t.Context(), again)

				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				again := registerParams
				again.Username = "otheruser"
				_, err = s.Register(t.Context(), again)

				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("by username ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				session, err := s.Login(t.Context(), "alice", "pwd")

				require.NoError(t, err)
				require.NotEmpty(t, session.Pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, session.Pair.Refresh.Value, "refresh token should not be empty")
			})
		})

		t.Run("by email ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "alice@example.com", "pwd")
				require.NoError(t, err)
			})
		})

		tests := []struct {
			name     string
			login    string
			password string
		}{
			{
				name:     "fail if wrong password",
				login:    "alice",
				password: "wrong",
			},
			{
				name:     "fail if user not exists",
				login:    "not-existed-user",
				password: "pwd",
			},
		}

		// Both failures must look identical to the caller
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
					_, err := s.Register(t.Context(), registerParams)
					require.NoError(t, err)

					_, err = s.Login(t.Context(), tt.login, tt.password)

					require.ErrorIs(t, err, apperrors.ErrBadCredentials)
				})
			})
		}

		t.Run("revokes earlier sessions", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				first, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "alice", "pwd")
				require.NoError(t, err)

				// The refresh token from before the login must be dead now
				_, err = s.Refresh(t.Context(), first.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			})
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("refresh once ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				// Register user and get initial token pair
				initial, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				// Use refresh token to get new token pair
				session, err := s.Refresh(t.Context(), initial.Pair.Refresh.Value)

				require.NoError(t, err)
				require.Equal(t, initial.User.ID, session.User.ID)
				require.NotEqual(t, initial.Pair.Access.Value, session.Pair.Access.Value, "new access token should be different")
				require.NotEqual(t, initial.Pair.Refresh.Value, session.Pair.Refresh.Value, "new refresh token should be different")
			})
		})

		t.Run("fail if used once", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				initial, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				// Use refresh token once - should work
				_, err = s.Refresh(t.Context(), initial.Pair.Refresh.Value)
				require.NoError(t, err)

				// Try to use same refresh token again - should fail
				_, err = s.Refresh(t.Context(), initial.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "should return error if token already used")
			})
		})

		t.Run("fail if unknown", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				_, err := s.Refresh(t.Context(), "never-issued")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			})
		})

		t.Run("fail if expired", func(t *testing.T) {
			withTx(pg.Pool, 1*time.Second, 1*time.Second, t, func(s *Service) {
				initial, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				// Move time forward to make sure refresh token is expired
				time.Sleep(time.Second)

				_, err = s.Refresh(t.Context(), initial.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired, "should return error if token expired")
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes the token", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				session, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				err = s.Logout(t.Context(), session.Pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), session.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "token must be unusable after logout")
			})
		})

		t.Run("unknown token is silent", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				err := s.Logout(t.Context(), "never-issued")
				require.NoError(t, err, "logout must not tell whether the token existed")
			})
		})

		t.Run("repeated logout is silent", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *Service) {
				session, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), session.Pair.Refresh.Value))
				require.NoError(t, s.Logout(t.Context(), session.Pair.Refresh.Value))
			})
		})
	})
}
