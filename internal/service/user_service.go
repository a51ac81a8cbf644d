package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// UserService manages desk accounts.
type UserService struct {
	users      repository.UserRepository
	enforcer   *auth.Enforcer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Enforcer   *auth.Enforcer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// UserInput carries editable account fields. Secret is only read on create.
type UserInput struct {
	FullName string `validate:"required,max=120"`
	Email    string `validate:"omitempty,email,max=254"`
	Username string `validate:"required,max=64"`
	Secret   string
	Role     domain.Role `validate:"required,oneof=admin commercial technician"`
}

func (in *UserInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		enforcer:   deps.Enforcer,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: deps.BcryptCost,
	}
}

// CreateUser hashes the secret and inserts the account in one statement. A
// taken username or email is reported as a conflict by the storage constraint.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.Identity, input UserInput) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectUsers, auth.ActionWrite); err != nil {
		return nil, err
	}
	input.normalize()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkUsername(input.Username); err != nil {
		return nil, err
	}
	if err := checkSecret(input.Secret); err != nil {
		return nil, err
	}

	hash, err := auth.HashSecret(input.Secret, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		FullName:   input.FullName,
		Email:      input.Email,
		Username:   input.Username,
		SecretHash: hash,
		Role:       input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.userStorageError(err, input)
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventUserCreated,
		Actor:   events.ActorFrom(actor),
		Payload: userPayload(user),
	})
	return user, nil
}

// UpdateUser overwrites name, email, username and role. The secret is untouched.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.Identity, id int64, input UserInput) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectUsers, auth.ActionWrite); err != nil {
		return nil, err
	}
	input.normalize()
	input.Secret = ""
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkUsername(input.Username); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       id,
		FullName: input.FullName,
		Email:    input.Email,
		Username: input.Username,
		Role:     input.Role,
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.userStorageError(err, input)
	}
	updated, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(s.logger, err, "user", map[string]any{"user_id": id})
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventUserUpdated,
		Actor:   events.ActorFrom(actor),
		Payload: userPayload(updated),
	})
	return updated, nil
}

// ResetSecret replaces the stored secret hash.
func (s *UserService) ResetSecret(ctx context.Context, actor *domain.Identity, id int64, secret string) error {
	if err := authorize(s.enforcer, actor, auth.ObjectUsers, auth.ActionWrite); err != nil {
		return err
	}
	if err := checkSecret(secret); err != nil {
		return err
	}
	hash, err := auth.HashSecret(secret, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdateSecret(ctx, id, hash); err != nil {
		return storageError(s.logger, err, "user", map[string]any{"user_id": id})
	}
	return nil
}

// DeleteUser removes the account. Assignments go with it; audit rows keep an
// empty user reference. Users who created tickets cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.Identity, id int64) error {
	if err := authorize(s.enforcer, actor, auth.ObjectUsers, auth.ActionDelete); err != nil {
		return err
	}
	if actor != nil && actor.UserID == id {
		return apperrors.NewConflict("cannot delete the signed-in user", map[string]any{"user_id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return storageError(s.logger, err, "user", map[string]any{"user_id": id})
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("user still referenced by tickets", map[string]any{"user_id": id})
		}
		return storageError(s.logger, err, "user", map[string]any{"user_id": id})
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventUserDeleted,
		Actor:   events.ActorFrom(actor),
		Payload: userPayload(user),
	})
	return nil
}

// GetUser looks a user up by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(s.logger, err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// LookupByFullName returns the lowest-id user carrying fullName. Full names
// are not unique; use it for search, never to pick an account.
func (s *UserService) LookupByFullName(ctx context.Context, fullName string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"full_name": "required"})
	}
	user, err := s.users.GetByFullName(ctx, fullName)
	if err != nil {
		return nil, storageError(s.logger, err, "user", map[string]any{"full_name": fullName})
	}
	return user, nil
}

// ListUsers returns users ordered by username, optionally restricted to role.
func (s *UserService) ListUsers(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	if role != nil && !role.Valid() {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"role": "oneof"})
	}
	users, err := s.users.List(ctx, repository.UserFilter{Role: role})
	if err != nil {
		return nil, storageError(s.logger, err, "user", nil)
	}
	return users, nil
}

func (s *UserService) userStorageError(err error, input UserInput) error {
	if errors.Is(err, repository.ErrDuplicate) {
		if input.Email != "" && strings.Contains(err.Error(), "email") {
			return apperrors.NewConflict("email already exists", map[string]any{"email": input.Email})
		}
		return apperrors.NewConflict("username already exists", map[string]any{"username": input.Username})
	}
	return storageError(s.logger, err, "user", map[string]any{"username": input.Username})
}

// checkSecret bounds the secret in bytes, not runes.
func checkSecret(secret string) error {
	if secret == "" {
		return apperrors.NewValidationError("invalid input", map[string]any{"secret": "required"})
	}
	if len(secret) > auth.MaxSecretBytes {
		return apperrors.NewValidationError("invalid input", map[string]any{"secret": "max_bytes=72"})
	}
	return nil
}

func checkUsername(username string) error {
	if strings.ContainsAny(username, " \t\r\n") {
		return apperrors.NewValidationError("invalid input", map[string]any{"username": "no_whitespace"})
	}
	return nil
}

func userPayload(user *domain.User) events.UserPayload {
	return events.UserPayload{UserID: user.ID, Username: user.Username, Role: user.Role}
}
