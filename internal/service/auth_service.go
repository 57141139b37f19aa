// Package service holds the business logic between the HTTP handlers
// and the repositories. Services depend on small store interfaces so
// they can be exercised against in-memory fakes in tests.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/repository"
	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/utils"
)

// UserStore is the slice of the user repository the session service
// needs. Lookup methods return sql.ErrNoRows when no record exists.
type UserStore interface {
	Create(ctx context.Context, email string, username *string, passwordHash string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthConfig carries the token issuance parameters of the session
// service.
type AuthConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// AuthService orchestrates registration, login, refresh rotation and
// logout. A refresh token lineage moves issued -> (redeemed ->
// issued')* -> revoked|expired; redemption always revokes the
// presented token before issuing the next one, so a leaked token is
// good for at most one rotation step.
type AuthService struct {
	cfg    AuthConfig
	users  UserStore
	tokens TokenStore
}

func NewAuthService(cfg AuthConfig, users UserStore, tokens TokenStore) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens}
}

// UserInfo is the sanitized user shape embedded in auth responses.
type UserInfo struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
	Role     string  `json:"role"`
}

// AuthResult is returned by register/login/refresh: the user plus a
// fresh token pair.
type AuthResult struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// Register creates a USER account and signs it in. Email uniqueness
// is case-insensitive (emails are normalized to lowercase before the
// lookup and the insert).
func (s *AuthService) Register(ctx context.Context, email, password string, username *string) (AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, response.Conflict("Email is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return AuthResult{}, err
	}
	if username != nil {
		if _, err := s.users.GetByUsername(ctx, *username); err == nil {
			return AuthResult{}, response.Conflict("Username is already in use")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, err
		}
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	user, err := s.users.Create(ctx, email, username, hash)
	if err != nil {
		// The unique keys close the race the pre-checks leave open.
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return AuthResult{}, response.Conflict("Email is already in use")
		case errors.Is(err, repository.ErrUsernameExists):
			return AuthResult{}, response.Conflict("Username is already in use")
		}
		return AuthResult{}, err
	}
	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a fresh token pair. Unknown
// email and wrong password produce the same error so the response
// does not reveal which one failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, response.Unauthorized("Invalid credentials")
		}
		return AuthResult{}, err
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return AuthResult{}, response.Unauthorized("Invalid credentials")
	}
	return s.issueTokens(ctx, user)
}

// Refresh redeems a refresh token for a new pair, revoking the
// presented token (rotation). Every failure mode is a 401: bad
// signature or expiry, unknown hash, revoked, past stored expiry, or
// subject user gone.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if _, _, err := utils.VerifyRefreshToken(s.cfg.RefreshSecret, refreshToken); err != nil {
		return AuthResult{}, response.Unauthorized("Invalid refresh token")
	}

	hash := utils.HashRefreshRaw(refreshToken)
	stored, err := s.tokens.FindRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, response.Unauthorized("Refresh token expired or revoked")
		}
		return AuthResult{}, err
	}
	if stored.RevokedAt != nil || time.Now().UTC().After(stored.ExpiresAt) {
		return AuthResult{}, response.Unauthorized("Refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, response.Unauthorized("User no longer exists")
		}
		return AuthResult{}, err
	}

	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return AuthResult{}, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes one refresh token by hash. Idempotent: revoking an
// unknown or already-revoked token still succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(refreshToken))
}

// LogoutAll revokes every active refresh token of a user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user model.User) (AuthResult, error) {
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, user.ID, user.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return AuthResult{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, user.ID, user.Role, s.cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Token), refresh.Exp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		User:         UserInfo{ID: user.ID, Email: user.Email, Username: user.Username, Role: user.Role},
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	}, nil
}
