// Package gormstore implements the repository interfaces on gorm. It backs the
// desk's sqlite data file and the in-memory databases used by tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// Migrate creates the schema if needed and seeds the fixed roles. It is safe
// to run on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(
		&RoleModel{},
		&UserModel{},
		&TicketModel{},
		&ServiceHistoryModel{},
		&ActionLogModel{},
		&ChangeLogModel{},
		&AssignmentModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	roles := make([]RoleModel, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		roles = append(roles, RoleModel{Name: string(role)})
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&roles).Error
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

// NewSet wires the gorm-backed repositories onto one handle.
func NewSet(db *gorm.DB) repository.Set {
	return repository.Set{
		Users:       NewUserRepository(db),
		Tickets:     NewTicketRepository(db),
		Assignments: NewAssignmentRepository(db),
		History:     NewHistoryRepository(db),
	}
}

// translate maps gorm and sqlite errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", repository.ErrReferenced, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", repository.ErrInvalid, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", repository.ErrReferenced, msg)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %s", repository.ErrInvalid, msg)
	}
	return err
}
