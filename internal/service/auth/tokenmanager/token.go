package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultClockSkew       = 60 * time.Second

	// token_type claim value of access tokens; refresh tokens are opaque
	// strings and never reach the JWT parser
	accessTokenType = "access"

	refreshTokenBytesLen = 32
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secret to sign and verify access tokens.
	// Required. May be a base64 encoded value or a raw string,
	// must be the same for the issuer and every verifier.
	SecretKey string

	// Issuer written into and required from every access token
	Issuer string

	// Audience written into access tokens.
	// It is not verified, see Verifier notes below.
	Audience string

	// Tolerated clock difference between issuer and verifier hosts
	ClockSkew time.Duration

	// Access and refresh token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager issues and verifies access tokens and mints opaque refresh tokens.
//
// Verifier-only instances (the gateway) are created with a nil refresh repo:
// verification is pure computation and never touches storage.
type TokenManager struct {
	key []byte
	alg jwt.SigningMethod

	issuer   string
	audience string

	skew       time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration

	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer must not be empty")
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.ClockSkew, defaultClockSkew)
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         signingKey(cfg.SecretKey),
		alg:         jwt.GetSigningMethod(defaultSigningMethod),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		skew:        cfg.ClockSkew,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// AccessTTL is exposed so handlers can report expiresIn seconds
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	// Generate JWT access token encoded as string
	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   strconv.FormatInt(user.ID, 10),
				Issuer:    m.issuer,
				Audience:  jwt.ClaimStrings{m.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			Username:  user.Username,
			TokenType: accessTokenType,
		},
	)
	access, err := accessToken.SignedString(m.key)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	// Refresh token is a random opaque value, never derived from time or user data
	b := make([]byte, refreshTokenBytesLen)
	_, err = rand.Read(b)
	if err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh,
		Revoked:   false,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// UseRefresh consumes the refresh token: the token is revoked and returned
// if it was still usable. Whatever goes wrong (unknown, already revoked,
// expired) the caller gets an error it can map to a uniform response.
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.refreshRepo.Revoke(ctx, refresh)
	if err != nil {
		return token, fmt.Errorf("error while using refresh token. Err: %w", err)
	}

	if token.ExpiresAt.Before(time.Now()) {
		return token, fmt.Errorf("error while using refresh token. Err: %w", apperrors.ErrRefreshTokenExpired)
	}

	return token, nil
}

// ParseAccess parses and validates the access token: signature, issuer,
// token_type claim and the expiry window widened by the clock skew.
//
// The audience claim is set on issue but deliberately not required here,
// matching what the rest of the platform expects from historical tokens.
func (m *TokenManager) ParseAccess(access string) (models.Identity, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.skew),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}

	if claims.TokenType != accessTokenType {
		return models.Identity{}, fmt.Errorf("%w: unexpected token_type %q", apperrors.ErrAccessTokenInvalid, claims.TokenType)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: subject is not a user id", apperrors.ErrAccessTokenInvalid)
	}

	return models.Identity{UserID: userID, Username: claims.Username}, nil
}

// signingKey decodes a base64 secret, falling back to the raw bytes.
// Keeps one env value usable by deployments that store the secret either way.
func signingKey(secret string) []byte {
	if key, err := base64.StdEncoding.DecodeString(secret); err == nil {
		return key
	}
	return []byte(secret)
}
