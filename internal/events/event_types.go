package events

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventTicketAssigned EventType = "ticket_assigned"
	EventUserCreated    EventType = "user_created"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventUserLoggedIn   EventType = "user_logged_in"
)

// Actor identifies who caused an event. A zero UserID means the system
// (for example the provisioning command).
type Actor struct {
	UserID int64       `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorFrom builds an actor from an identity, tolerating nil.
func ActorFrom(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{UserID: identity.UserID, Role: identity.Role}
}

// UserRef returns the actor id as a nullable foreign key.
func (a Actor) UserRef() *int64 {
	if a.UserID <= 0 {
		return nil
	}
	id := a.UserID
	return &id
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketUpdatedPayload carries both versions so subscribers can diff them.
type TicketUpdatedPayload struct {
	Before domain.Ticket `json:"before"`
	After  domain.Ticket `json:"after"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	ClientName string `json:"client_name"`
	Equipment  string `json:"equipment"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID       int64  `json:"technician_id"`
	TechnicianUsername string `json:"technician_username"`
}

// UserPayload describes the user an event is about.
type UserPayload struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}
