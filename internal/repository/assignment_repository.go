package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// AssignmentRepository links technicians to tickets. Rows are insert-only.
type AssignmentRepository interface {
	Assign(ctx context.Context, assignment *domain.Assignment) error
	ListTechnicians(ctx context.Context, ticketID int64) ([]domain.User, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

// Assign inserts the pair; the composite primary key rejects repeats with ErrDuplicate.
func (r *assignmentRepository) Assign(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO service_technicians (service_id, technician_id)
        VALUES ($1, $2)
        RETURNING assigned_at`
	err := r.pool.QueryRow(ctx, query, assignment.TicketID, assignment.TechnicianID).Scan(&assignment.AssignedAt)
	return translatePg(err)
}

func (r *assignmentRepository) ListTechnicians(ctx context.Context, ticketID int64) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM service_technicians st
        JOIN users u ON u.id = st.technician_id
        JOIN roles r ON r.id = u.role_id
        WHERE st.service_id=$1
        ORDER BY u.username ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translatePg(err)
	}
	defer rows.Close()
	return scanUsers(rows)
}
