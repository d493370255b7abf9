package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"steamtracker/internal/models"
	"steamtracker/internal/repository"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService owns registration and opaque bearer tokens. Tokens are
// random, stored server-side and individually revocable; there is no
// claim payload to leak or forge.
type AuthService struct {
	Store       repository.Store
	TokenTTL    time.Duration
	BcryptCost  int
	MinPassword int
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	minPassword := s.MinPassword
	if minPassword <= 0 {
		minPassword = 8
	}
	if len(password) < minPassword {
		return nil, fmt.Errorf("password must be at least %d characters", minPassword)
	}

	existing, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	cost := s.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and mints a fresh token. The same
// ErrInvalidCredentials covers unknown users and wrong passwords, so
// responses don't reveal which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.Store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	now := time.Now().UTC()
	token := &models.AuthToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Store.InsertAuthToken(ctx, token); err != nil {
		return "", nil, err
	}
	return token.Token, user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Store.DeleteAuthToken(ctx, token)
}

// Authenticate resolves a bearer token to its user. Expired tokens are
// deleted on sight rather than waiting for the cleanup job.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	record, err := s.Store.GetAuthToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		_ = s.Store.DeleteAuthToken(ctx, token)
		return nil, ErrInvalidToken
	}
	user, err := s.Store.GetUserByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// PruneExpiredTokens drops tokens past their expiry.
func (s *AuthService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return s.Store.DeleteExpiredAuthTokens(ctx, time.Now().UTC())
}
