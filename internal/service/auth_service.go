package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const invalidCredentials = "invalid credentials"

// AuthService checks desk credentials.
type AuthService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Authenticate returns the identity for an exact username and matching
// secret. Unknown users and wrong secrets fail identically.
func (s *AuthService) Authenticate(ctx context.Context, username, secret string) (*domain.Identity, error) {
	if username == "" || secret == "" {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, storageError(s.logger, err, "user", nil)
	}
	if err := auth.CompareSecret(user.SecretHash, secret); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	identity := &domain.Identity{
		UserID:   user.ID,
		FullName: user.FullName,
		Username: user.Username,
		Role:     user.Role,
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:  events.EventUserLoggedIn,
		Actor: events.ActorFrom(identity),
		Payload: events.UserPayload{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	})
	return identity, nil
}
