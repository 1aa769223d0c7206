package service

import (
	"context"
	"strings"
	"time"

	"github.com/soportehq/helpdesk/internal/auth"
	"github.com/soportehq/helpdesk/internal/config"
	"github.com/soportehq/helpdesk/internal/domain"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// AuthService signs agents in and out of the directory.
type AuthService struct {
	users  *UserService
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// Session is an issued access token with its subject.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs the service.
func NewAuthService(users *UserService, tokens *auth.TokenManager, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg}
}

// TokenManager exposes the signer for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a directory account with a hashed password and
// returns a fresh session. The directory's bootstrap rule applies: the
// first account becomes admin.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*Session, error) {
	if strings.TrimSpace(password) == "" {
		return nil, apperrors.NewValidationError("password required", nil)
	}
	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, UserCreateInput{
		Email:        email,
		Name:         name,
		Role:         domain.RoleAgent,
		PasswordHash: hash,
	}, "")
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials and returns a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
