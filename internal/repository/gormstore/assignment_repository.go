package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository returns a gorm-backed assignment repository.
func NewAssignmentRepository(db *gorm.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Assign(ctx context.Context, assignment *domain.Assignment) error {
	model := &AssignmentModel{
		ServiceID:    assignment.TicketID,
		TechnicianID: assignment.TechnicianID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	assignment.AssignedAt = model.AssignedAt
	return nil
}

func (r *assignmentRepository) ListTechnicians(ctx context.Context, ticketID int64) ([]domain.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Preload("Role").
		Joins("JOIN service_technicians st ON st.technician_id = users.id").
		Where("st.service_id = ?", ticketID).
		Order("users.username ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate(err)
	}
	result := make([]domain.User, 0, len(models))
	for i := range models {
		result = append(result, userToDomain(&models[i]))
	}
	return result, nil
}
