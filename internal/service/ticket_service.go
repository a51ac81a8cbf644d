package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// TicketService coordinates service ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	enforcer    *auth.Enforcer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	Enforcer       *auth.Enforcer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketInput describes every mutable ticket field. An empty status on
// create means open.
type TicketInput struct {
	ClientName    string              `validate:"required,max=120"`
	ClientPhone   string              `validate:"max=40"`
	ClientEmail   string              `validate:"omitempty,email,max=254"`
	Equipment     string              `validate:"max=255"`
	ProblemReport string              `validate:"max=4000"`
	Status        domain.TicketStatus `validate:"omitempty,oneof=open diagnosing repair done delivered canceled"`
}

func (in *TicketInput) normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	in.Equipment = strings.TrimSpace(in.Equipment)
	in.ProblemReport = strings.TrimSpace(in.ProblemReport)
}

// TicketListFilter describes listing filters. TechnicianID zero lists every
// ticket; technicians are always restricted to their own assignments.
type TicketListFilter struct {
	TechnicianID int64
	Status       *domain.TicketStatus
	ClientPrefix string
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		assignments: deps.AssignmentRepo,
		enforcer:    deps.Enforcer,
		dispatcher:  deps.Dispatcher,
		logger:      loggerOrNop(deps.Logger),
		now:         time.Now,
	}
}

// CreateTicket records a new ticket created by actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Identity, input TicketInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := authorize(s.enforcer, actor, auth.ObjectTickets, auth.ActionWrite); err != nil {
		return nil, err
	}
	input.normalize()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domain.TicketStatusOpen
	}

	ticket := &domain.Ticket{CreatedByID: actor.UserID}
	s.apply(ticket, input)
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storageError(s.logger, err, "ticket", map[string]any{"created_by_id": actor.UserID})
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// UpdateTicket overwrites every mutable field including the status. Any
// status may follow any other; closed_at tracks delivered and canceled.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.Identity, id int64, input TicketInput) (*domain.Ticket, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectTickets, auth.ActionWrite); err != nil {
		return nil, err
	}
	input.normalize()
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"status": "required"})
	}

	current, err := s.fetch(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	s.apply(&updated, input)
	if err := s.tickets.Update(ctx, &updated); err != nil {
		return nil, storageError(s.logger, err, "ticket", map[string]any{"ticket_id": id})
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketUpdatedPayload{Before: *current, After: updated},
	})
	return &updated, nil
}

// DeleteTicket removes the ticket with its assignments and audit trail.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Identity, id int64) error {
	if err := authorize(s.enforcer, actor, auth.ObjectTickets, auth.ActionDelete); err != nil {
		return err
	}
	current, err := s.fetch(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return storageError(s.logger, err, "ticket", map[string]any{"ticket_id": id})
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketDeletedPayload{ClientName: current.ClientName, Equipment: current.Equipment},
	})
	return nil
}

// GetTicket fetches a ticket visible to actor.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Identity, id int64) (*domain.Ticket, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectTickets, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.fetch(ctx, actor, id)
}

// ListTickets returns tickets newest first.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Identity, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectTickets, auth.ActionRead); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"status": "oneof"})
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"limit": "min=0", "offset": "min=0"})
	}

	repoFilter := repository.TicketFilter{
		TechnicianID: filter.TechnicianID,
		Status:       filter.Status,
		ClientPrefix: filter.ClientPrefix,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if actor != nil && actor.Role == domain.RoleTechnician {
		repoFilter.TechnicianID = actor.UserID
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, storageError(s.logger, err, "ticket", nil)
	}
	return tickets, nil
}

func (s *TicketService) fetch(ctx context.Context, actor *domain.Identity, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(s.logger, err, "ticket", map[string]any{"ticket_id": id})
	}
	if actor != nil && actor.Role == domain.RoleTechnician {
		ok, err := s.isAssigned(ctx, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Technicians only see their own tickets; hide the rest entirely.
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
	}
	return ticket, nil
}

func (s *TicketService) isAssigned(ctx context.Context, ticketID, technicianID int64) (bool, error) {
	techs, err := s.assignments.ListTechnicians(ctx, ticketID)
	if err != nil {
		return false, storageError(s.logger, err, "assignment", map[string]any{"ticket_id": ticketID})
	}
	for _, tech := range techs {
		if tech.ID == technicianID {
			return true, nil
		}
	}
	return false, nil
}

func (s *TicketService) apply(ticket *domain.Ticket, input TicketInput) {
	previous := ticket.Status
	ticket.ClientName = input.ClientName
	ticket.ClientPhone = input.ClientPhone
	ticket.ClientEmail = input.ClientEmail
	ticket.Equipment = input.Equipment
	ticket.ProblemReport = input.ProblemReport
	ticket.Status = input.Status

	switch {
	case !ticket.Status.Closed():
		ticket.ClosedAt = nil
	case !previous.Closed() || ticket.ClosedAt == nil:
		now := s.now().UTC()
		ticket.ClosedAt = &now
	}
}
