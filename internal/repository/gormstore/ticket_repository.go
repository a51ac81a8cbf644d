package gormstore

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository returns a gorm-backed ticket repository.
func NewTicketRepository(db *gorm.DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	model := ticketToModel(ticket)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	ticket.ID = model.ID
	ticket.CreatedAt = model.CreatedAt
	return nil
}

// Update overwrites every mutable column; the creator and creation time stay.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	result := r.db.WithContext(ctx).Model(&TicketModel{}).Where("id = ?", ticket.ID).Updates(map[string]any{
		"client_name":    ticket.ClientName,
		"client_phone":   ticket.ClientPhone,
		"client_email":   ticket.ClientEmail,
		"equipment_desc": ticket.Equipment,
		"problem_report": ticket.ProblemReport,
		"status":         string(ticket.Status),
		"closed_at":      ticket.ClosedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&TicketModel{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var model TicketModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	ticket := ticketToDomain(&model)
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	query := r.db.WithContext(ctx).Model(&TicketModel{})
	if filter.TechnicianID > 0 {
		query = query.Joins(
			"JOIN service_technicians st ON st.service_id = services.id AND st.technician_id = ?",
			filter.TechnicianID,
		)
	}
	if filter.Status != nil {
		query = query.Where("services.status = ?", string(*filter.Status))
	}
	if prefix := strings.TrimSpace(filter.ClientPrefix); prefix != "" {
		query = query.Where(`services.client_name LIKE ? ESCAPE '\'`, repository.LikePrefix(prefix))
	}
	query = query.Order("services.created_at DESC").Order("services.id DESC")
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query = query.Limit(filter.Limit).Offset(offset)
	}

	var models []TicketModel
	if err := query.Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	result := make([]domain.Ticket, 0, len(models))
	for i := range models {
		result = append(result, ticketToDomain(&models[i]))
	}
	return result, nil
}
