package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/service"
)

// AuditHandler exposes the action log.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListActions GET /audit/actions?limit=.
func (h *AuditHandler) ListActions(c *fiber.Ctx) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.audit.ListActions(c.UserContext(), actor, parseIntQuery(c, "limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.ActionEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ActionEntryResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListChanges GET /audit/changes?limit=, across every ticket.
func (h *AuditHandler) ListChanges(c *fiber.Ctx) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.audit.ListChanges(c.UserContext(), actor, 0, parseIntQuery(c, "limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": changeResponses(entries)})
}
