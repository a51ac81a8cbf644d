package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// HistoryRepository stores the audit tables: service history, change logs and action logs.
type HistoryRepository interface {
	CreateHistory(ctx context.Context, entry *domain.ServiceHistoryEntry) error
	ListHistory(ctx context.Context, ticketID int64) ([]domain.ServiceHistoryEntry, error)
	CreateChange(ctx context.Context, entry *domain.ChangeLogEntry) error
	ListChanges(ctx context.Context, filter ChangeFilter) ([]domain.ChangeLogEntry, error)
	CreateAction(ctx context.Context, entry *domain.ActionLogEntry) error
	ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) CreateHistory(ctx context.Context, entry *domain.ServiceHistoryEntry) error {
	const query = `
        INSERT INTO service_history (service_id, user_id, note, status)
        VALUES ($1,$2,$3,NULLIF($4, ''))
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Note,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translatePg(err)
}

func (r *historyRepository) ListHistory(ctx context.Context, ticketID int64) ([]domain.ServiceHistoryEntry, error) {
	const query = `
        SELECT id, service_id, user_id, COALESCE(note, ''), COALESCE(status, ''), created_at
        FROM service_history WHERE service_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translatePg(err)
	}
	defer rows.Close()

	var result []domain.ServiceHistoryEntry
	for rows.Next() {
		var entry domain.ServiceHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Note,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, translatePg(rows.Err())
}

func (r *historyRepository) CreateChange(ctx context.Context, entry *domain.ChangeLogEntry) error {
	const query = `
        INSERT INTO change_logs (change_type, service_id, user_id, field, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		entry.ChangeType,
		entry.TicketID,
		entry.UserID,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translatePg(err)
}

func (r *historyRepository) ListChanges(ctx context.Context, filter ChangeFilter) ([]domain.ChangeLogEntry, error) {
	query := `
        SELECT id, COALESCE(change_type, ''), service_id, user_id, field,
               COALESCE(old_value, ''), COALESCE(new_value, ''), created_at
        FROM change_logs`
	args := []any{}
	if filter.TicketID > 0 {
		args = append(args, filter.TicketID)
		query += fmt.Sprintf(" WHERE service_id=$%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultChangeLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePg(err)
	}
	defer rows.Close()

	var result []domain.ChangeLogEntry
	for rows.Next() {
		var entry domain.ChangeLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ChangeType,
			&entry.TicketID,
			&entry.UserID,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, translatePg(rows.Err())
}

func (r *historyRepository) CreateAction(ctx context.Context, entry *domain.ActionLogEntry) error {
	const query = `
        INSERT INTO action_logs (user_id, action, details)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, entry.UserID, entry.Action, entry.Details).Scan(&entry.ID, &entry.CreatedAt)
	return translatePg(err)
}

func (r *historyRepository) ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error) {
	if limit <= 0 {
		limit = defaultChangeLimit
	}
	query := fmt.Sprintf(`
        SELECT id, user_id, action, COALESCE(details, ''), created_at
        FROM action_logs ORDER BY created_at DESC, id DESC LIMIT %d`, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translatePg(err)
	}
	defer rows.Close()

	var result []domain.ActionLogEntry
	for rows.Next() {
		var entry domain.ActionLogEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, translatePg(rows.Err())
}
