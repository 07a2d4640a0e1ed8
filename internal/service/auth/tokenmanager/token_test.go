package tokenmanager

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
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

const testIssuer = "test-issuer"

func signToken(t *testing.T, key []byte, claims AccessTokenClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func testClaims(userID int64) AccessTokenClaims {
	return AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
		Username:  "testuser",
		TokenType: "access",
	}
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, accessTTL time.Duration, refreshTTL time.Duration, fn func(m *TokenManager, user models.User)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			cfg := Config{
				SecretKey:  "test-secret-key",
				Issuer:     testIssuer,
				AccessTTL:  accessTTL,
				RefreshTTL: refreshTTL,
			}
			storage := postgres.NewStorage(tx)

			user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Username:       "testuser",
				Email:          "testuser@example.com",
				HashedPassword: "hashed_password",
			})
			require.NoError(t, err, "test user should be created without errors")

			tokenManager, err := New(cfg, storage.RefreshToken())
			require.NoError(t, err, "token manager should be created without errors")

			fn(tokenManager, user)
		})
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret", Issuer: testIssuer}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("secret"), m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultClockSkew, m.skew, "default clock skew should be set")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new requires secret and issuer", func(t *testing.T) {
		_, err := New(Config{Issuer: testIssuer}, nil)
		require.Error(t, err, "empty secret must not be accepted")

		_, err = New(Config{SecretKey: "secret"}, nil)
		require.Error(t, err, "empty issuer must not be accepted")
	})

	t.Run("secret key decoding", func(t *testing.T) {
		raw := []byte{0x00, 0x2a, 0xff, 0x10, 0x99, 0xde, 0xad, 0xbe}

		m, err := New(Config{SecretKey: base64.StdEncoding.EncodeToString(raw), Issuer: testIssuer}, nil)
		require.NoError(t, err)
		require.Equal(t, raw, m.key, "base64 secret should be decoded to raw bytes")

		m, err = New(Config{SecretKey: "not base64 at all!", Issuer: testIssuer}, nil)
		require.NoError(t, err)
		require.Equal(t, []byte("not base64 at all!"), m.key, "non base64 secret should be used as is")
	})

	t.Run("GeneratePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)

					require.NoError(t, err)

					assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
					assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
					assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
				},
			)
		})

		t.Run("access claims", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					// Parse and verify the access token
					token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
						return []byte("test-secret-key"), nil
					})
					require.NoError(t, err)
					require.True(t, token.Valid, "access token should be valid")

					claims, ok := token.Claims.(*AccessTokenClaims)
					require.True(t, ok, "claims should be of type AccessTokenClaims")
					assert.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject, "subject should be the user id")
					assert.Equal(t, user.Username, claims.Username, "username claim should match")
					assert.Equal(t, "access", claims.TokenType, "token_type claim should be access")
					assert.Equal(t, testIssuer, claims.Issuer, "issuer claim should match config")
					assert.NotEmpty(t, claims.ID, "token has to has jti")
					assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second, "expires at should be 15 minutes from now")

					assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
				},
			)
		})

		t.Run("generate different tokens", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair1, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					pair2, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
					assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
				},
			)
		})
	})

	t.Run("UseRefresh", func(t *testing.T) {
		t.Run("use token once", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					token, err := tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err, "using refresh token should not return an error")

					require.Equal(t, user.ID, token.UserID)
					require.WithinDuration(t, pair.Refresh.ExpiresAt, token.ExpiresAt, time.Second, "refresh token expiration should match expected value")
				},
			)
		})

		t.Run("use token twice", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					// Use the token once
					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err, "using refresh token should not return an error")

					// Try to use the same token again
					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "using the same refresh token again should return an error")
				},
			)
		})

		t.Run("use unknown token", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					_, err := tokenManager.UseRefresh(t.Context(), "never-issued")
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
				},
			)
		})

		t.Run("use expired token", func(t *testing.T) {
			withTx(pg.Pool, t, 1*time.Second, 1*time.Second,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.GeneratePair(t.Context(), user)
					require.NoError(t, err)

					// Wait for the token to expire
					time.Sleep(time.Second)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired, "using expired refresh token should return an error")
				},
			)
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		// Verification never touches storage, nil repo is enough here
		newVerifier := func(t *testing.T, skew time.Duration) *TokenManager {
			m, err := New(Config{SecretKey: "test-secret-key", Issuer: testIssuer, ClockSkew: skew}, nil)
			require.NoError(t, err, "token manager should be created without errors")
			return m
		}

		t.Run("valid token", func(t *testing.T) {
			m := newVerifier(t, 0)
			access := signToken(t, m.key, testClaims(42))

			identity, err := m.ParseAccess(access)
			require.NoError(t, err, "valid token should be parsed without errors")
			require.Equal(t, int64(42), identity.UserID)
			require.Equal(t, "testuser", identity.Username)
		})

		t.Run("not a token", func(t *testing.T) {
			m := newVerifier(t, 0)

			_, err := m.ParseAccess("invalid token")
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "parsing even not a token should return an error")
		})

		t.Run("wrong secret", func(t *testing.T) {
			m := newVerifier(t, 0)
			access := signToken(t, []byte("other-secret"), testClaims(42))

			_, err := m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token signed with another secret must fail")
		})

		t.Run("wrong issuer", func(t *testing.T) {
			m := newVerifier(t, 0)
			claims := testClaims(42)
			claims.Issuer = "someone-else"
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token from another issuer must fail")
		})

		t.Run("refresh token_type rejected", func(t *testing.T) {
			m := newVerifier(t, 0)
			claims := testClaims(42)
			claims.TokenType = "refresh"
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "only access tokens may pass verification")
		})

		t.Run("non numeric subject rejected", func(t *testing.T) {
			m := newVerifier(t, 0)
			claims := testClaims(42)
			claims.Subject = "alice"
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
		})

		t.Run("expired beyond skew", func(t *testing.T) {
			m := newVerifier(t, time.Nanosecond)
			claims := testClaims(42)
			claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token has to become expired")
		})

		t.Run("expired within skew accepted", func(t *testing.T) {
			m := newVerifier(t, time.Minute)
			claims := testClaims(42)
			claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.NoError(t, err, "recently expired token should stay valid within skew window")
		})

		t.Run("issued in future within skew accepted", func(t *testing.T) {
			m := newVerifier(t, time.Minute)
			claims := testClaims(42)
			claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(10 * time.Second))
			access := signToken(t, m.key, claims)

			_, err := m.ParseAccess(access)
			require.NoError(t, err, "slightly future iat should stay valid within skew window")
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newVerifier(t, 0)

			// Create valid but unsigned token
			token := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(42))
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "Valid token with empty alg must fail")
		})
	})
}
