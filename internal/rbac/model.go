// File: internal/rbac/model.go
package rbac

import (
	"time"

	"github.com/google/uuid"

	"clinic_backend/internal/common"
)

// RoleAdmin bypasses permission checks everywhere.
const RoleAdmin = "admin"

// Role groups staff accounts for authorization.
type Role struct {
	common.SoftDeleteModel
	Name        string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_roles_name,unique"`
	Description *string `gorm:"type:text"`
}

// TableName specifies the table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// Permission names an action a role may perform, e.g. `appointments.read`.
type Permission struct {
	common.SoftDeleteModel
	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_permissions_name,unique"`
	Description *string `gorm:"type:text"`
}

// TableName specifies the table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// RoleHasPermission is the join row between roles and permissions.
// The (role, permission) pair is unique.
type RoleHasPermission struct {
	common.BaseModel
	RoleID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_role_has_permissions_pair,unique"`
	PermissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_role_has_permissions_pair,unique"`

	Role       Role       `gorm:"foreignKey:RoleID"`
	Permission Permission `gorm:"foreignKey:PermissionID"`
}

// TableName specifies the table name for the RoleHasPermission model.
func (RoleHasPermission) TableName() string {
	return "role_has_permissions"
}

// --- DTOs ---

// RoleResponse defines the structure for role data in API responses.
type RoleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToRoleResponse converts a Role model to a RoleResponse DTO.
func ToRoleResponse(r *Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// PermissionResponse defines the structure for permission data in API responses.
type PermissionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPermissionResponse converts a Permission model to a PermissionResponse DTO.
func ToPermissionResponse(p *Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreateRoleRequest for creating roles.
type CreateRoleRequest struct {
	Name        string  `json:"name" binding:"required,max=50"`
	Description *string `json:"description,omitempty"`
}

// UpdateRoleRequest for updating roles.
type UpdateRoleRequest struct {
	Name        string  `json:"name" binding:"required,max=50"`
	Description *string `json:"description,omitempty"`
}

// CreatePermissionRequest for creating permissions.
type CreatePermissionRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description,omitempty"`
}
