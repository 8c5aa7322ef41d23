package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
)

// AdminStore is the slice of the persistence layer the auth flow needs.
// *config.Store satisfies it.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	SetAdminRefreshToken(ctx context.Context, id int64, token *string) error
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Admin        *model.Admin `json:"admin"`
}

// ProfileResult is returned by GetProfile.
type ProfileResult struct {
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// AuthService composes the admin store, password hasher and token manager.
// It keeps no state between calls.
type AuthService struct {
	store  AdminStore
	hasher PasswordHasher
	tokens *TokenManager
}

func NewAuthService(store AdminStore, hasher PasswordHasher, tokens *TokenManager) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
}

// Tokens exposes the token manager for request authentication.
func (s *AuthService) Tokens() *TokenManager {
	return s.tokens
}

// Signup creates a new admin and logs it in.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := requireCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := s.store.GetAdminByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, config.ErrNotFound):
		return nil, internal("look up admin", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, internal("create admin", err)
	}

	return s.startSession(ctx, admin)
}

// Login checks credentials and issues a fresh token pair. The new refresh
// token replaces any previous one, so only the latest login can refresh.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := requireCredentials(username, password); err != nil {
		return nil, err
	}

	admin, err := s.store.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("look up admin", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		return nil, ErrBadCredentials
	}

	return s.startSession(ctx, admin)
}

// GetProfile resolves an access token to its admin and hands back a fresh
// access token.
func (s *AuthService) GetProfile(ctx context.Context, token string) (*ProfileResult, error) {
	if token == "" {
		return nil, missing("token")
	}

	identity, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	admin, err := s.lookup(ctx, identity.AdminID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(admin)
	if err != nil {
		return nil, internal("issue access token", err)
	}
	return &ProfileResult{Username: admin.Username, AccessToken: access}, nil
}

// Refresh exchanges the admin's current refresh token for a new access
// token. A refresh token superseded by a later login is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", missing("refreshToken")
	}

	identity, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	admin, err := s.lookup(ctx, identity.AdminID)
	if err != nil {
		return "", err
	}
	if admin.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*admin.RefreshToken), []byte(refreshToken)) != 1 {
		return "", ErrTokenInvalid
	}

	access, err := s.tokens.IssueAccessToken(admin)
	if err != nil {
		return "", internal("issue access token", err)
	}
	return access, nil
}

// Logout clears the stored refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, adminID int64) error {
	if err := s.store.SetAdminRefreshToken(ctx, adminID, nil); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return ErrNotFound
		}
		return internal("clear refresh token", err)
	}
	return nil
}

func (s *AuthService) startSession(ctx context.Context, admin *model.Admin) (*AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(admin)
	if err != nil {
		return nil, internal("issue access token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(admin)
	if err != nil {
		return nil, internal("issue refresh token", err)
	}

	if err := s.store.SetAdminRefreshToken(ctx, admin.ID, &refresh); err != nil {
		return nil, internal("store refresh token", err)
	}
	admin.RefreshToken = &refresh

	return &AuthResult{AccessToken: access, RefreshToken: refresh, Admin: admin}, nil
}

func (s *AuthService) lookup(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.store.GetAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("get admin", err)
	}
	return admin, nil
}

func requireCredentials(username, password string) error {
	if username == "" {
		return missing("username")
	}
	if password == "" {
		return missing("password")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidField, MaxPasswordBytes)
	}
	return nil
}
