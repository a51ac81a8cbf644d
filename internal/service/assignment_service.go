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

// AssignmentService links technicians to tickets.
type AssignmentService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	enforcer    *auth.Enforcer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	Enforcer       *auth.Enforcer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		enforcer:    deps.Enforcer,
		dispatcher:  deps.Dispatcher,
		logger:      loggerOrNop(deps.Logger),
	}
}

// AssignTechnician adds technicianID to the ticket. Assigning the same
// technician twice is a conflict.
func (s *AssignmentService) AssignTechnician(ctx context.Context, actor *domain.Identity, ticketID, technicianID int64) (*domain.Assignment, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectAssignments, auth.ActionWrite); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, storageError(s.logger, err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		return nil, storageError(s.logger, err, "technician", map[string]any{"technician_id": technicianID})
	}
	if technician.Role != domain.RoleTechnician {
		return nil, apperrors.NewValidationError("assignee is not a technician", map[string]any{
			"technician_id": technicianID,
			"role":          technician.Role,
		})
	}

	assignment := &domain.Assignment{TicketID: ticketID, TechnicianID: technicianID}
	if err := s.assignments.Assign(ctx, assignment); err != nil {
		details := map[string]any{"ticket_id": ticketID, "technician_id": technicianID}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("technician already assigned", details)
		}
		return nil, storageError(s.logger, err, "assignment", details)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketAssignedPayload{
			TechnicianID:       technician.ID,
			TechnicianUsername: technician.Username,
		},
	})
	return assignment, nil
}

// ListTechnicians returns the technicians assigned to a ticket by username.
func (s *AssignmentService) ListTechnicians(ctx context.Context, actor *domain.Identity, ticketID int64) ([]domain.User, error) {
	if err := authorize(s.enforcer, actor, auth.ObjectAssignments, auth.ActionRead); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, storageError(s.logger, err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	techs, err := s.assignments.ListTechnicians(ctx, ticketID)
	if err != nil {
		return nil, storageError(s.logger, err, "assignment", map[string]any{"ticket_id": ticketID})
	}
	return techs, nil
}
