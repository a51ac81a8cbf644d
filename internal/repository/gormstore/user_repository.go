package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed user repository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) roleID(ctx context.Context, role domain.Role) (uint, error) {
	var model RoleModel
	err := r.db.WithContext(ctx).Where("name = ?", string(role)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: unknown role %q", repository.ErrInvalid, role)
	}
	if err != nil {
		return 0, translate(err)
	}
	return model.ID, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	roleID, err := r.roleID(ctx, user.Role)
	if err != nil {
		return err
	}
	model := &UserModel{
		FullName:   user.FullName,
		Email:      nullableString(user.Email),
		Username:   user.Username,
		SecretHash: user.SecretHash,
		RoleID:     roleID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err)
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	roleID, err := r.roleID(ctx, user.Role)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", user.ID).Updates(map[string]any{
		"full_name": user.FullName,
		"email":     nullableString(user.Email),
		"username":  user.Username,
		"role_id":   roleID,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateSecret(ctx context.Context, id int64, secretHash string) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Update("secret_hash", secretHash)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "users.id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "users.username = ?", username)
}

// GetByFullName returns the lowest-id user with the given full name.
func (r *userRepository) GetByFullName(ctx context.Context, fullName string) (*domain.User, error) {
	return r.first(ctx, "users.full_name = ?", fullName)
}

func (r *userRepository) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Preload("Role").Where(cond, arg).Order("users.id ASC").First(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	user := userToDomain(&model)
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	query := r.db.WithContext(ctx).Preload("Role")
	if filter.Role != nil {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.name = ?", string(*filter.Role))
	}

	var models []UserModel
	if err := query.Order("users.username ASC").Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	result := make([]domain.User, 0, len(models))
	for i := range models {
		result = append(result, userToDomain(&models[i]))
	}
	return result, nil
}
