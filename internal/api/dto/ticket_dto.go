package dto

import "time"

// TicketRequest is the body of POST /tickets and PUT /tickets/:id.
type TicketRequest struct {
	ClientName    string `json:"client_name" validate:"required"`
	ClientPhone   string `json:"client_phone"`
	ClientEmail   string `json:"client_email"`
	Equipment     string `json:"equipment"`
	ProblemReport string `json:"problem_report"`
	Status        string `json:"status"`
}

// AssignRequest is the body of POST /tickets/:id/technicians.
type AssignRequest struct {
	TechnicianID int64 `json:"technician_id" validate:"required,gt=0"`
}

// TicketResponse renders a ticket.
type TicketResponse struct {
	ID            int64      `json:"id"`
	ClientName    string     `json:"client_name"`
	ClientPhone   string     `json:"client_phone,omitempty"`
	ClientEmail   string     `json:"client_email,omitempty"`
	Equipment     string     `json:"equipment,omitempty"`
	ProblemReport string     `json:"problem_report,omitempty"`
	Status        string     `json:"status"`
	CreatedByID   int64      `json:"created_by_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// AssignmentResponse acknowledges a technician assignment.
type AssignmentResponse struct {
	TicketID     int64     `json:"ticket_id"`
	TechnicianID int64     `json:"technician_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// HistoryEntryResponse renders a service history row.
type HistoryEntryResponse struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Note      string    `json:"note,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangeEntryResponse renders a change log row.
type ChangeEntryResponse struct {
	ID         int64     `json:"id"`
	ChangeType string    `json:"change_type"`
	TicketID   int64     `json:"ticket_id"`
	UserID     *int64    `json:"user_id"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActionEntryResponse renders an action log row.
type ActionEntryResponse struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
