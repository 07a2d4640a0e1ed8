package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/communityplatform/backend/internal/apperrors"
	"github.com/communityplatform/backend/internal/models"
	"github.com/communityplatform/backend/internal/repository"
	"github.com/communityplatform/backend/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration and login
	// Defaults to BcryptHasher
	Hasher PasswordHasher
}

type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is what every successful auth operation returns:
// the authenticated user and a fresh token pair
type Session struct {
	User models.User
	Pair models.TokenPair
}

type Service struct {
	tokens  *tokenmanager.TokenManager
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, storage repository.Storage) (*Service, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	return &Service{
		tokens:  tokens,
		hasher:  hasher,
		storage: storage,
	}, nil
}

// AccessTokenTTL reports how long issued access tokens live
func (s *Service) AccessTokenTTL() int64 {
	return int64(s.tokens.AccessTTL().Seconds())
}

// Register creates the user and issues the first token pair.
// Password is hashed before it reaches storage, the plaintext is never kept.
func (s *Service) Register(ctx context.Context, arg RegisterParams) (Session, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return Session{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:       arg.Username,
		Email:          arg.Email,
		HashedPassword: hash,
		FirstName:      arg.FirstName,
		LastName:       arg.LastName,
	})
	if err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return Session{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return Session{User: user, Pair: pair}, nil
}

// Login checks credentials and issues a fresh pair.
// Unknown user and wrong password both come back as ErrBadCredentials.
// Every refresh token the user still had gets revoked first, so a login
// always starts a single new session family.
func (s *Service) Login(ctx context.Context, usernameOrEmail string, password string) (Session, error) {
	user, err := s.storage.User().GetUserByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		// Burn comparable time on a throwaway hash so lookup misses
		// are not distinguishable by timing either
		_, _ = s.hasher.Hash(password)
		return Session{}, apperrors.ErrBadCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return Session{}, apperrors.ErrBadCredentials
	}

	if _, err := s.storage.RefreshToken().RevokeAllForUser(ctx, user.ID); err != nil {
		return Session{}, fmt.Errorf("error while revoking old sessions. Err: %w", err)
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return Session{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return Session{User: user, Pair: pair}, nil
}

// Refresh rotates the pair: the presented token is revoked and a new pair
// issued. A token that is unknown, revoked or expired fails the same way.
func (s *Service) Refresh(ctx context.Context, refresh string) (Session, error) {
	token, err := s.tokens.UseRefresh(ctx, refresh)
	if err != nil {
		return Session{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return Session{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return Session{User: user, Pair: pair}, nil
}

// Logout revokes the token if it exists.
// Unknown or already revoked tokens are a silent no-op: logout must not
// leak whether a token ever existed.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	_, err := s.storage.RefreshToken().Revoke(ctx, refresh)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return nil
	case errors.Is(err, apperrors.ErrRefreshTokenRevoked):
		return nil
	default:
		return err
	}
}
