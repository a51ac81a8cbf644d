package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// Services bundles every service wired onto one repository set.
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Tickets       *TicketService
	Assignments   *AssignmentService
	Audit         *AuditService
	Notifications *NotificationService
	Enforcer      *auth.Enforcer
	Dispatcher    events.Dispatcher
}

// New wires the services. Event handlers are not subscribed here; the worker
// package does that.
func New(repos repository.Set, enforcer *auth.Enforcer, cfg *config.Config, logger *zap.Logger) *Services {
	dispatcher := events.NewInMemoryDispatcher()
	return &Services{
		Auth: NewAuthService(AuthDependencies{
			UserRepo:   repos.Users,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		Users: NewUserService(UserDependencies{
			UserRepo:   repos.Users,
			Enforcer:   enforcer,
			Dispatcher: dispatcher,
			Logger:     logger,
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		Tickets: NewTicketService(TicketDependencies{
			TicketRepo:     repos.Tickets,
			AssignmentRepo: repos.Assignments,
			Enforcer:       enforcer,
			Dispatcher:     dispatcher,
			Logger:         logger,
		}),
		Assignments: NewAssignmentService(AssignmentDependencies{
			TicketRepo:     repos.Tickets,
			UserRepo:       repos.Users,
			AssignmentRepo: repos.Assignments,
			Enforcer:       enforcer,
			Dispatcher:     dispatcher,
			Logger:         logger,
		}),
		Audit: NewAuditService(AuditDependencies{
			HistoryRepo: repos.History,
			Enforcer:    enforcer,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		Notifications: NewNotificationService(dispatcher, logger, cfg.Notification),
		Enforcer:      enforcer,
		Dispatcher:    dispatcher,
	}
}
