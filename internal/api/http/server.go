package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/session"
)

// ServerDependencies is everything the HTTP surface needs.
type ServerDependencies struct {
	Config   *config.Config
	Services *service.Services
	Store    *persistence.Store
	Redis    *persistence.Redis
	Sessions session.Registry
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewApp builds the fiber application with middlewares and routes attached.
func NewApp(deps ServerDependencies) *fiber.App {
	cfg := deps.Config
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authMiddleware := auth.NewAuthMiddleware(tokens, deps.Sessions, deps.Store.Repos.Users)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, cfg.App.RequestTimeout())

	svc := deps.Services
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Store, deps.Redis, deps.Metrics),
		Auth:           handlers.NewAuthHandler(svc.Auth, tokens, deps.Sessions),
		Users:          handlers.NewUsersHandler(svc.Users),
		Tickets:        handlers.NewTicketsHandler(svc.Tickets, svc.Assignments, svc.Audit),
		Audit:          handlers.NewAuditHandler(svc.Audit),
		AuthMiddleware: authMiddleware,
		Enforcer:       svc.Enforcer,
	})
	return app
}
