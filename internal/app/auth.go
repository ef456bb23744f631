package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/auth"
	"quiz-hosting-service/internal/domain"
)

// AuthService registers users and trades credentials for tokens.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenManager
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens *auth.TokenManager, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, log: log, now: time.Now}
}

// Register creates an account with a hashed password.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.Invalid("username", "is required")
	}
	if password == "" {
		return domain.User{}, domain.Invalid("password", "is required")
	}
	if role == "" {
		role = "user"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}
	return s.tokens.Issue(user)
}

// Verify resolves a bearer token to the caller's identity.
func (s *AuthService) Verify(token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}
