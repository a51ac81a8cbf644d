// Package session holds the signed-in desk state: who is logged in and where
// they are in the screen flow.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/navigation"
	"github.com/spec-kit/servicedesk/internal/service"
)

// Context is the application context handed to every desk screen. The role
// is cached at login; a later role change applies from the next login.
type Context struct {
	Services  *service.Services
	Navigator *navigation.Navigator

	identity *domain.Identity
	logger   *zap.Logger
}

// New returns a logged-out context showing the login screen.
func New(services *service.Services, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Services:  services,
		Navigator: navigation.New(),
		logger:    logger,
	}
}

// HomeScreen returns the landing screen for role.
func HomeScreen(role domain.Role) navigation.Screen {
	switch role {
	case domain.RoleAdmin:
		return navigation.ScreenAdminMenu
	case domain.RoleCommercial:
		return navigation.ScreenServices
	case domain.RoleTechnician:
		return navigation.ScreenTechnicianServices
	}
	return navigation.ScreenLogin
}

// Login authenticates and, on success, replaces the identity and lands on the
// role's home screen with an empty history. A failed login changes nothing.
func (c *Context) Login(ctx context.Context, username, secret string) (*domain.Identity, error) {
	identity, err := c.Services.Auth.Authenticate(ctx, username, secret)
	if err != nil {
		c.logger.Info("login failed", zap.String("username", username))
		return nil, err
	}
	c.identity = identity
	c.Navigator.Reset(navigation.ScreenLogin)
	c.Navigator.NavigateTo(HomeScreen(identity.Role))
	c.logger.Info("login", zap.Int64("user_id", identity.UserID), zap.String("role", string(identity.Role)))
	return identity, nil
}

// Logout forgets the identity and returns to the login screen.
func (c *Context) Logout() {
	if c.identity != nil {
		c.logger.Info("logout", zap.Int64("user_id", c.identity.UserID))
	}
	c.identity = nil
	c.Navigator.Reset(navigation.ScreenLogin)
}

// Identity returns the signed-in identity, or nil.
func (c *Context) Identity() *domain.Identity {
	return c.identity
}

// Role returns the cached role, or "" when logged out.
func (c *Context) Role() domain.Role {
	if c.identity == nil {
		return ""
	}
	return c.identity.Role
}

// Can reports whether the signed-in user may perform act on obj.
func (c *Context) Can(obj, act string) bool {
	if c.identity == nil || c.Services.Enforcer == nil {
		return false
	}
	return c.Services.Enforcer.Allowed(c.identity.Role, obj, act)
}

// Open navigates to screen when the role may view it.
func (c *Context) Open(screen navigation.Screen) bool {
	if !c.Can(auth.ScreenObject(string(screen)), auth.ActionView) {
		return false
	}
	c.Navigator.NavigateTo(screen)
	return true
}

// Back pops the navigation history when the back control is offered.
func (c *Context) Back() bool {
	if !c.BackVisible() {
		return false
	}
	return c.Navigator.GoBack()
}

// BackVisible reports whether the back control is shown on the current screen.
func (c *Context) BackVisible() bool {
	return c.Navigator.BackVisible(c.Role())
}
