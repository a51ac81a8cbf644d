package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// TicketRepository encapsulates service ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `s.id, s.client_name, COALESCE(s.client_phone, ''), COALESCE(s.client_email, ''),
        COALESCE(s.equipment_desc, ''), COALESCE(s.problem_report, ''), s.status, s.created_by_id,
        s.created_at, s.closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO services (client_name, client_phone, client_email, equipment_desc, problem_report, created_by_id, status, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.ClientName,
		ticket.ClientPhone,
		ticket.ClientEmail,
		ticket.Equipment,
		ticket.ProblemReport,
		ticket.CreatedByID,
		ticket.Status,
		ticket.ClosedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	return translatePg(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE services SET client_name=$1, client_phone=$2, client_email=$3, equipment_desc=$4,
            problem_report=$5, status=$6, closed_at=$7
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.ClientName,
		ticket.ClientPhone,
		ticket.ClientEmail,
		ticket.Equipment,
		ticket.ProblemReport,
		ticket.Status,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return translatePg(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return translatePg(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM services s WHERE s.id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translatePg(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM services s`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TechnicianID > 0 {
		args = append(args, filter.TechnicianID)
		base += fmt.Sprintf(" JOIN service_technicians st ON st.service_id = s.id AND st.technician_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("s.status=$%d", len(args)))
	}
	if prefix := strings.TrimSpace(filter.ClientPrefix); prefix != "" {
		args = append(args, LikePrefix(prefix))
		clauses = append(clauses, fmt.Sprintf(`s.client_name ILIKE $%d ESCAPE '\'`, len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY s.created_at DESC, s.id DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePg(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ClientName,
		&ticket.ClientPhone,
		&ticket.ClientEmail,
		&ticket.Equipment,
		&ticket.ProblemReport,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, translatePg(rows.Err())
}
