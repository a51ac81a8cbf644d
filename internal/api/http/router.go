package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
	Enforcer       *auth.Enforcer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	can := func(obj, act string) fiber.Handler {
		return auth.RequirePermission(cfg.Enforcer, obj, act)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", can(auth.ObjectUsers, auth.ActionRead), cfg.Users.ListUsers)
	users.Post("/", can(auth.ObjectUsers, auth.ActionWrite), cfg.Users.CreateUser)
	users.Get("/lookup", can(auth.ObjectUsers, auth.ActionRead), cfg.Users.LookupUser)
	users.Get("/:id", can(auth.ObjectUsers, auth.ActionRead), cfg.Users.GetUser)
	users.Put("/:id", can(auth.ObjectUsers, auth.ActionWrite), cfg.Users.UpdateUser)
	users.Delete("/:id", can(auth.ObjectUsers, auth.ActionDelete), cfg.Users.DeleteUser)
	users.Post("/:id/secret", can(auth.ObjectUsers, auth.ActionWrite), cfg.Users.ResetSecret)

	app.Get("/technicians", cfg.AuthMiddleware.Handle, can(auth.ObjectAssignments, auth.ActionWrite), cfg.Users.ListTechnicians)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", can(auth.ObjectTickets, auth.ActionRead), cfg.Tickets.ListTickets)
	tickets.Post("/", can(auth.ObjectTickets, auth.ActionWrite), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", can(auth.ObjectTickets, auth.ActionRead), cfg.Tickets.GetTicket)
	tickets.Put("/:id", can(auth.ObjectTickets, auth.ActionWrite), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", can(auth.ObjectTickets, auth.ActionDelete), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/technicians", can(auth.ObjectAssignments, auth.ActionRead), cfg.Tickets.ListTechnicians)
	tickets.Post("/:id/technicians", can(auth.ObjectAssignments, auth.ActionWrite), cfg.Tickets.AssignTechnician)
	tickets.Get("/:id/history", can(auth.ObjectHistory, auth.ActionRead), cfg.Tickets.ListHistory)
	tickets.Get("/:id/changes", can(auth.ObjectHistory, auth.ActionRead), cfg.Tickets.ListChanges)

	audit := app.Group("/audit", cfg.AuthMiddleware.Handle)
	audit.Get("/actions", can(auth.ObjectAudit, auth.ActionRead), cfg.Audit.ListActions)
	audit.Get("/changes", can(auth.ObjectHistory, auth.ActionRead), cfg.Audit.ListChanges)
}
