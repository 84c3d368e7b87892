// File: internal/user/model.go
package user

import (
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
	"clinic_backend/internal/rbac"
)

// User represents a staff account (receptionist, therapist, admin).
// Patients never log in; they are plain records in the patient package.
type User struct {
	common.SoftDeleteModel
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email,unique"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(100);not null"`
	LastName     string     `gorm:"type:varchar(100);not null"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`

	Role rbac.Role `gorm:"foreignKey:RoleID"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// GetID implements shared.UserDataForToken.
func (u *User) GetID() uuid.UUID {
	return u.ID
}

// GetEmail implements shared.UserDataForToken.
func (u *User) GetEmail() string {
	return u.Email
}

// GetRole implements shared.UserDataForToken. The role must be preloaded;
// every repository read does so.
func (u *User) GetRole() string {
	return u.Role.Name
}

// --- DTOs ---

// CreateUserRequest for admins creating staff accounts.
type CreateUserRequest struct {
	Email     string    `json:"email" binding:"required,email"`
	Password  string    `json:"password" binding:"required,min=8,max=72"` // bcrypt max is 72 bytes
	FirstName string    `json:"first_name" binding:"required,max=100"`
	LastName  string    `json:"last_name" binding:"required,max=100"`
	RoleID    uuid.UUID `json:"role_id" binding:"required"`
}

// UpdateUserRequest for admins updating staff accounts. Nil fields are
// left untouched; Password, when present, is re-hashed.
type UpdateUserRequest struct {
	Email     *string    `json:"email,omitempty" binding:"omitempty,email"`
	Password  *string    `json:"password,omitempty" binding:"omitempty,min=8,max=72"`
	FirstName *string    `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName  *string    `json:"last_name,omitempty" binding:"omitempty,max=100"`
	RoleID    *uuid.UUID `json:"role_id,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// ListUsersQuery holds the supported list filters.
type ListUsersQuery struct {
	common.PaginationQuery
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
}
