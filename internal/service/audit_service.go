package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// AuditService records change logs, status history and action logs from
// domain events, and serves them back. Writes are best effort.
type AuditService struct {
	history    repository.HistoryRepository
	enforcer   *auth.Enforcer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuditDependencies bundles requirements for the audit service.
type AuditDependencies struct {
	HistoryRepo repository.HistoryRepository
	Enforcer    *auth.Enforcer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	return &AuditService{
		history:    deps.HistoryRepo,
		enforcer:   deps.Enforcer,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventTicketUpdated, a.handleTicketUpdated)
	a.dispatcher.Subscribe(events.EventTicketDeleted, a.handleTicketDeleted)
	a.dispatcher.Subscribe(events.EventTicketAssigned, a.handleTicketAssigned)
	a.dispatcher.Subscribe(events.EventUserCreated, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserDeleted, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handleUserEvent)
}

// ListHistory returns the status history of a ticket, oldest first.
func (a *AuditService) ListHistory(ctx context.Context, actor *domain.Identity, ticketID int64) ([]domain.ServiceHistoryEntry, error) {
	if err := authorize(a.enforcer, actor, auth.ObjectHistory, auth.ActionRead); err != nil {
		return nil, err
	}
	entries, err := a.history.ListHistory(ctx, ticketID)
	if err != nil {
		return nil, storageError(a.logger, err, "history", map[string]any{"ticket_id": ticketID})
	}
	return entries, nil
}

// ListChanges returns change log entries newest first. A zero ticketID lists
// every ticket.
func (a *AuditService) ListChanges(ctx context.Context, actor *domain.Identity, ticketID int64, limit int) ([]domain.ChangeLogEntry, error) {
	if err := authorize(a.enforcer, actor, auth.ObjectHistory, auth.ActionRead); err != nil {
		return nil, err
	}
	entries, err := a.history.ListChanges(ctx, repository.ChangeFilter{TicketID: ticketID, Limit: limit})
	if err != nil {
		return nil, storageError(a.logger, err, "change log", map[string]any{"ticket_id": ticketID})
	}
	return entries, nil
}

// ListActions returns action log entries newest first.
func (a *AuditService) ListActions(ctx context.Context, actor *domain.Identity, limit int) ([]domain.ActionLogEntry, error) {
	if err := authorize(a.enforcer, actor, auth.ObjectAudit, auth.ActionRead); err != nil {
		return nil, err
	}
	entries, err := a.history.ListActions(ctx, limit)
	if err != nil {
		return nil, storageError(a.logger, err, "action log", nil)
	}
	return entries, nil
}

func (a *AuditService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	user := event.Actor.UserRef()
	a.writeChange(ctx, &domain.ChangeLogEntry{
		ChangeType: domain.ChangeTypeCreate,
		TicketID:   event.TicketID,
		UserID:     user,
		Field:      "ticket",
		NewValue:   payload.Ticket.ClientName,
	})
	a.writeHistory(ctx, &domain.ServiceHistoryEntry{
		TicketID: event.TicketID,
		UserID:   user,
		Status:   payload.Ticket.Status,
		Note:     "ticket created",
	})
	a.writeAction(ctx, user, string(event.Type), fmt.Sprintf("ticket #%d for %s", event.TicketID, payload.Ticket.ClientName))
	return nil
}

func (a *AuditService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	user := event.Actor.UserRef()
	for _, change := range diffTicket(payload.Before, payload.After) {
		a.writeChange(ctx, &domain.ChangeLogEntry{
			ChangeType: domain.ChangeTypeUpdate,
			TicketID:   event.TicketID,
			UserID:     user,
			Field:      change.field,
			OldValue:   change.from,
			NewValue:   change.to,
		})
	}
	if payload.Before.Status != payload.After.Status {
		a.writeHistory(ctx, &domain.ServiceHistoryEntry{
			TicketID: event.TicketID,
			UserID:   user,
			Status:   payload.After.Status,
			Note:     fmt.Sprintf("status %s -> %s", payload.Before.Status, payload.After.Status),
		})
	}
	return nil
}

func (a *AuditService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	details := fmt.Sprintf("ticket #%d", event.TicketID)
	if payload, ok := event.Payload.(events.TicketDeletedPayload); ok {
		details = fmt.Sprintf("ticket #%d for %s", event.TicketID, payload.ClientName)
	}
	a.writeAction(ctx, event.Actor.UserRef(), string(event.Type), details)
	return nil
}

func (a *AuditService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	user := event.Actor.UserRef()
	a.writeHistory(ctx, &domain.ServiceHistoryEntry{
		TicketID: event.TicketID,
		UserID:   user,
		Note:     "assigned " + payload.TechnicianUsername,
	})
	a.writeAction(ctx, user, string(event.Type), fmt.Sprintf("ticket #%d to %s", event.TicketID, payload.TechnicianUsername))
	return nil
}

func (a *AuditService) handleUserEvent(ctx context.Context, event events.Event) error {
	details := ""
	if payload, ok := event.Payload.(events.UserPayload); ok {
		details = fmt.Sprintf("%s (%s)", payload.Username, payload.Role)
	}
	a.writeAction(ctx, event.Actor.UserRef(), string(event.Type), details)
	return nil
}

func (a *AuditService) writeChange(ctx context.Context, entry *domain.ChangeLogEntry) {
	if err := a.history.CreateChange(ctx, entry); err != nil {
		a.logger.Error("write change log", zap.Int64("ticket_id", entry.TicketID), zap.String("field", entry.Field), zap.Error(err))
	}
}

func (a *AuditService) writeHistory(ctx context.Context, entry *domain.ServiceHistoryEntry) {
	if err := a.history.CreateHistory(ctx, entry); err != nil {
		a.logger.Error("write service history", zap.Int64("ticket_id", entry.TicketID), zap.Error(err))
	}
}

func (a *AuditService) writeAction(ctx context.Context, user *int64, action, details string) {
	entry := &domain.ActionLogEntry{UserID: user, Action: action, Details: details}
	if err := a.history.CreateAction(ctx, entry); err != nil {
		a.logger.Error("write action log", zap.String("action", action), zap.Error(err))
	}
}

type fieldChange struct {
	field string
	from  string
	to    string
}

func diffTicket(before, after domain.Ticket) []fieldChange {
	pairs := []fieldChange{
		{"client_name", before.ClientName, after.ClientName},
		{"client_phone", before.ClientPhone, after.ClientPhone},
		{"client_email", before.ClientEmail, after.ClientEmail},
		{"equipment", before.Equipment, after.Equipment},
		{"problem_report", before.ProblemReport, after.ProblemReport},
		{"status", string(before.Status), string(after.Status)},
	}
	changes := make([]fieldChange, 0, len(pairs))
	for _, p := range pairs {
		if p.from != p.to {
			changes = append(changes, p)
		}
	}
	return changes
}
