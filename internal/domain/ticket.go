package domain

import "time"

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusDiagnosing TicketStatus = "diagnosing"
	TicketStatusRepair     TicketStatus = "repair"
	TicketStatusDone       TicketStatus = "done"
	TicketStatusDelivered  TicketStatus = "delivered"
	TicketStatusCanceled   TicketStatus = "canceled"
)

// TicketStatuses lists statuses in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusDiagnosing,
	TicketStatusRepair,
	TicketStatusDone,
	TicketStatusDelivered,
	TicketStatusCanceled,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, status := range TicketStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Closed reports whether the ticket has left the shop for good.
func (s TicketStatus) Closed() bool {
	return s == TicketStatusDelivered || s == TicketStatusCanceled
}

// Ticket is a repair request for a client's equipment.
type Ticket struct {
	ID            int64
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	Equipment     string
	ProblemReport string
	Status        TicketStatus
	CreatedByID   int64
	CreatedAt     time.Time
	ClosedAt      *time.Time
}
