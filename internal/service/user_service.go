package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/repository"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// ErrCodeEmailExists is the conflict code for duplicate emails.
const ErrCodeEmailExists = "EMAIL_ALREADY_EXISTS"

// UserService manages the agent/admin directory.
type UserService struct {
	store    repository.Store
	activity *ActivityService
	logger   *zap.Logger
}

// UserCreateInput describes a new directory account.
type UserCreateInput struct {
	Email        string
	Name         string
	Role         domain.UserRole
	PasswordHash string
}

// UserUpdateInput carries a partial merge; nil fields are left as-is.
type UserUpdateInput struct {
	Email        *string
	Name         *string
	Role         *domain.UserRole
	PasswordHash *string
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, activity *ActivityService, logger *zap.Logger) *UserService {
	return &UserService{store: store, activity: activity, logger: logger}
}

// CreateUser persists a new account. Email uniqueness is enforced with
// a case-sensitive exact match. When externalID is non-empty it is used
// as the primary key (pre-allocated by an identity provider). The first
// account created into an empty directory is explicitly promoted to
// admin, with an audit record of the bootstrap.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput, externalID string) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict(ErrCodeEmailExists, "email already exists", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleAgent
	}

	count, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, err
	}
	bootstrapped := count == 0 && role != domain.RoleAdmin
	if count == 0 {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		ID:           externalID,
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: input.PasswordHash,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	if count == 0 {
		entry := &domain.ActivityLogEntry{
			Actor:   ActorSystem,
			ActorID: &user.ID,
			Action:  ActionAdminBootstrapped,
			Entity:  user.Email,
			Metadata: map[string]any{
				"userId":   user.ID,
				"promoted": bootstrapped,
			},
		}
		_ = s.activity.Record(ctx, s.store.Activity(), entry, PolicyBestEffort)
		s.logger.Info("bootstrap admin created",
			zap.String("user_id", user.ID),
			zap.String("email", user.Email))
	}
	return user, nil
}

// UpdateUser applies a partial merge of the provided fields. An email
// change re-checks the uniqueness invariant against all other users;
// keeping the current email always succeeds.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		owner, err := s.store.Users().GetByEmail(ctx, *input.Email)
		if err == nil && owner.ID != id {
			return nil, apperrors.NewConflict(ErrCodeEmailExists, "email already exists", map[string]any{"email": *input.Email})
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.PasswordHash != nil {
		user.PasswordHash = *input.PasswordHash
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID fetches one account.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail fetches one account by its unique email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns the whole directory.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().List(ctx)
}
