package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set bundles the repositories one storage backend provides.
type Set struct {
	Users       UserRepository
	Tickets     TicketRepository
	Assignments AssignmentRepository
	History     HistoryRepository
}

// NewPostgresSet wires the pgx-backed repositories onto one pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewUserRepository(pool),
		Tickets:     NewTicketRepository(pool),
		Assignments: NewAssignmentRepository(pool),
		History:     NewHistoryRepository(pool),
	}
}
