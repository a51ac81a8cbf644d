package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

const defaultListLimit = 200

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository returns a gorm-backed audit repository.
func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) CreateHistory(ctx context.Context, entry *domain.ServiceHistoryEntry) error {
	model := &ServiceHistoryModel{
		ServiceID: entry.TicketID,
		UserID:    entry.UserID,
		Note:      entry.Note,
		Status:    string(entry.Status),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

func (r *historyRepository) ListHistory(ctx context.Context, ticketID int64) ([]domain.ServiceHistoryEntry, error) {
	var models []ServiceHistoryModel
	err := r.db.WithContext(ctx).
		Where("service_id = ?", ticketID).
		Order("created_at ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate(err)
	}
	result := make([]domain.ServiceHistoryEntry, 0, len(models))
	for _, m := range models {
		result = append(result, domain.ServiceHistoryEntry{
			ID:        m.ID,
			TicketID:  m.ServiceID,
			UserID:    m.UserID,
			Note:      m.Note,
			Status:    domain.TicketStatus(m.Status),
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}

func (r *historyRepository) CreateChange(ctx context.Context, entry *domain.ChangeLogEntry) error {
	model := &ChangeLogModel{
		ChangeType: string(entry.ChangeType),
		ServiceID:  entry.TicketID,
		UserID:     entry.UserID,
		Field:      entry.Field,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

func (r *historyRepository) ListChanges(ctx context.Context, filter repository.ChangeFilter) ([]domain.ChangeLogEntry, error) {
	query := r.db.WithContext(ctx).Model(&ChangeLogModel{})
	if filter.TicketID > 0 {
		query = query.Where("service_id = ?", filter.TicketID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var models []ChangeLogModel
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	result := make([]domain.ChangeLogEntry, 0, len(models))
	for _, m := range models {
		result = append(result, domain.ChangeLogEntry{
			ID:         m.ID,
			ChangeType: domain.ChangeType(m.ChangeType),
			TicketID:   m.ServiceID,
			UserID:     m.UserID,
			Field:      m.Field,
			OldValue:   m.OldValue,
			NewValue:   m.NewValue,
			CreatedAt:  m.CreatedAt,
		})
	}
	return result, nil
}

func (r *historyRepository) CreateAction(ctx context.Context, entry *domain.ActionLogEntry) error {
	model := &ActionLogModel{
		UserID:  entry.UserID,
		Action:  entry.Action,
		Details: entry.Details,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

func (r *historyRepository) ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var models []ActionLogModel
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, translate(err)
	}
	result := make([]domain.ActionLogEntry, 0, len(models))
	for _, m := range models {
		result = append(result, domain.ActionLogEntry{
			ID:        m.ID,
			UserID:    m.UserID,
			Action:    m.Action,
			Details:   m.Details,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}
