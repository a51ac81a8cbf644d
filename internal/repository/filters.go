package repository

import "github.com/spec-kit/servicedesk/internal/domain"

// UserFilter narrows user listings.
type UserFilter struct {
	Role *domain.Role
}

// TicketFilter captures ticket listing parameters. A TechnicianID of zero
// means no assignment restriction.
type TicketFilter struct {
	TechnicianID int64
	Status       *domain.TicketStatus
	ClientPrefix string
	Limit        int
	Offset       int
}

// ChangeFilter narrows change log listings. A TicketID of zero lists all tickets.
type ChangeFilter struct {
	TicketID int64
	Limit    int
}

const defaultChangeLimit = 200
