package domain

import "time"

// Assignment links a technician to a ticket.
type Assignment struct {
	TicketID     int64
	TechnicianID int64
	AssignedAt   time.Time
}
