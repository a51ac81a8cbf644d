package domain

import "time"

// ChangeType captures why a change log entry was written.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
)

// ChangeLogEntry records one field-level edit on a ticket.
type ChangeLogEntry struct {
	ID         int64
	ChangeType ChangeType
	TicketID   int64
	UserID     *int64
	Field      string
	OldValue   string
	NewValue   string
	CreatedAt  time.Time
}

// ServiceHistoryEntry records a ticket status transition or note.
type ServiceHistoryEntry struct {
	ID        int64
	TicketID  int64
	UserID    *int64
	Note      string
	Status    TicketStatus
	CreatedAt time.Time
}

// ActionLogEntry records who did what.
type ActionLogEntry struct {
	ID        int64
	UserID    *int64
	Action    string
	Details   string
	CreatedAt time.Time
}
