package gormstore

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// RoleModel is a row of the roles lookup table.
type RoleModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:32;not null;uniqueIndex"`
}

func (RoleModel) TableName() string {
	return "roles"
}

// UserModel maps the users table.
type UserModel struct {
	ID         int64     `gorm:"primaryKey"`
	FullName   string    `gorm:"not null"`
	Email      *string   `gorm:"uniqueIndex"`
	Username   string    `gorm:"not null;uniqueIndex"`
	SecretHash string    `gorm:"not null"`
	RoleID     uint      `gorm:"not null;index"`
	Role       RoleModel `gorm:"foreignKey:RoleID"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// TicketModel maps the services table.
type TicketModel struct {
	ID            int64  `gorm:"primaryKey"`
	ClientName    string `gorm:"not null"`
	ClientPhone   string
	ClientEmail   string
	EquipmentDesc string
	ProblemReport string
	CreatedByID   int64     `gorm:"not null;index"`
	CreatedBy     UserModel `gorm:"foreignKey:CreatedByID"`
	Status        string    `gorm:"size:20;not null;default:open;check:chk_services_status,status IN ('open','diagnosing','repair','done','delivered','canceled')"`
	CreatedAt     time.Time `gorm:"not null;index"`
	ClosedAt      *time.Time
}

func (TicketModel) TableName() string {
	return "services"
}

// ServiceHistoryModel maps the service_history table.
type ServiceHistoryModel struct {
	ID        int64       `gorm:"primaryKey"`
	ServiceID int64       `gorm:"not null;index"`
	Service   TicketModel `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	UserID    *int64
	User      *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Note      string
	Status    string    `gorm:"size:20"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ServiceHistoryModel) TableName() string {
	return "service_history"
}

// ActionLogModel maps the action_logs table.
type ActionLogModel struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    *int64
	User      *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Action    string     `gorm:"not null"`
	Details   string
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ActionLogModel) TableName() string {
	return "action_logs"
}

// ChangeLogModel maps the change_logs table.
type ChangeLogModel struct {
	ID         int64 `gorm:"primaryKey"`
	ChangeType string
	ServiceID  int64       `gorm:"not null;index"`
	Service    TicketModel `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	UserID     *int64
	User       *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Field      string     `gorm:"not null"`
	OldValue   string
	NewValue   string
	CreatedAt  time.Time `gorm:"not null"`
}

func (ChangeLogModel) TableName() string {
	return "change_logs"
}

// AssignmentModel maps service_technicians; the pair is the primary key.
type AssignmentModel struct {
	ServiceID    int64       `gorm:"primaryKey;autoIncrement:false"`
	TechnicianID int64       `gorm:"primaryKey;autoIncrement:false"`
	Service      TicketModel `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	Technician   UserModel   `gorm:"foreignKey:TechnicianID;constraint:OnDelete:CASCADE"`
	AssignedAt   time.Time   `gorm:"autoCreateTime;not null"`
}

func (AssignmentModel) TableName() string {
	return "service_technicians"
}

func userToDomain(m *UserModel) domain.User {
	user := domain.User{
		ID:         m.ID,
		FullName:   m.FullName,
		Username:   m.Username,
		SecretHash: m.SecretHash,
		Role:       domain.Role(m.Role.Name),
		CreatedAt:  m.CreatedAt,
	}
	if m.Email != nil {
		user.Email = *m.Email
	}
	return user
}

func ticketToModel(t *domain.Ticket) *TicketModel {
	return &TicketModel{
		ID:            t.ID,
		ClientName:    t.ClientName,
		ClientPhone:   t.ClientPhone,
		ClientEmail:   t.ClientEmail,
		EquipmentDesc: t.Equipment,
		ProblemReport: t.ProblemReport,
		CreatedByID:   t.CreatedByID,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		ClosedAt:      t.ClosedAt,
	}
}

func ticketToDomain(m *TicketModel) domain.Ticket {
	return domain.Ticket{
		ID:            m.ID,
		ClientName:    m.ClientName,
		ClientPhone:   m.ClientPhone,
		ClientEmail:   m.ClientEmail,
		Equipment:     m.EquipmentDesc,
		ProblemReport: m.ProblemReport,
		Status:        domain.TicketStatus(m.Status),
		CreatedByID:   m.CreatedByID,
		CreatedAt:     m.CreatedAt,
		ClosedAt:      m.ClosedAt,
	}
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
