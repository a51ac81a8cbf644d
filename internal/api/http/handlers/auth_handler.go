package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/session"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// AuthHandler issues and revokes API sessions.
type AuthHandler struct {
	auth     *service.AuthService
	tokens   *auth.TokenManager
	sessions session.Registry
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, tokens *auth.TokenManager, sessions session.Registry) *AuthHandler {
	return &AuthHandler{auth: authService, tokens: tokens, sessions: sessions}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	identity, err := h.auth.Authenticate(ctx, req.Username, req.Secret)
	if err != nil {
		return err
	}

	record, err := h.sessions.Create(ctx, identity, h.tokens.TTL())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	token, exp, err := h.tokens.GenerateToken(identity, record.ID)
	if err != nil {
		_ = h.sessions.Revoke(ctx, record.ID)
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		Identity:  identityResponse(identity),
	}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.sessions.Revoke(c.UserContext(), principal.SessionID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": identityResponse(identity)})
}
