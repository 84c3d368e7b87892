// File: internal/rbac/repository.go
package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Repository defines the interface for role and permission data operations.
type Repository interface {
	// Roles
	CreateRole(ctx context.Context, role *Role) error
	FindRoleByID(ctx context.Context, id uuid.UUID) (*Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	FindAllRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error

	// Permissions
	CreatePermission(ctx context.Context, permission *Permission) error
	FindPermissionByID(ctx context.Context, id uuid.UUID) (*Permission, error)
	FindPermissionByName(ctx context.Context, name string) (*Permission, error)
	FindAllPermissions(ctx context.Context) ([]Permission, error)
	DeletePermission(ctx context.Context, id uuid.UUID) error

	// Assignments
	AssignPermission(ctx context.Context, roleID, permissionID uuid.UUID) error
	RevokePermission(ctx context.Context, roleID, permissionID uuid.UUID) error
	FindPermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]Permission, error)
	FindPermissionNamesForRoleName(ctx context.Context, roleName string) ([]string, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM RBAC repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// --- Roles ---

func (r *gormRepository) CreateRole(ctx context.Context, role *Role) error {
	role.Name = strings.TrimSpace(role.Name)
	err := r.db.WithContext(ctx).Create(role).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A role with this name already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindRoleByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	var role Role
	err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Role not found.")
		}
		return nil, err
	}
	return &role, nil
}

func (r *gormRepository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := r.db.WithContext(ctx).First(&role, "name = ?", strings.TrimSpace(name)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Role not found.")
		}
		return nil, err
	}
	return &role, nil
}

func (r *gormRepository) FindAllRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *gormRepository) UpdateRole(ctx context.Context, role *Role) error {
	err := r.db.WithContext(ctx).Save(role).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A role with this name already exists.")
		}
		return err
	}
	return nil
}

// DeleteRole removes a role and its permission assignments unless staff
// accounts still reference it.
func (r *gormRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	var userCount int64
	if err := r.db.WithContext(ctx).Table("users").
		Where("role_id = ? AND deleted_at IS NULL", id).
		Count(&userCount).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to check for users assigned to the role.")
	}
	if userCount > 0 {
		return common.ErrConflict.WithDetails(
			fmt.Sprintf("Cannot delete role: %d users are still assigned to it.", userCount),
		)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&RoleHasPermission{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Role{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Role not found or already deleted.")
		}
		return nil
	})
}

// --- Permissions ---

func (r *gormRepository) CreatePermission(ctx context.Context, permission *Permission) error {
	permission.Name = strings.TrimSpace(permission.Name)
	err := r.db.WithContext(ctx).Create(permission).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A permission with this name already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindPermissionByID(ctx context.Context, id uuid.UUID) (*Permission, error) {
	var permission Permission
	err := r.db.WithContext(ctx).First(&permission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Permission not found.")
		}
		return nil, err
	}
	return &permission, nil
}

func (r *gormRepository) FindPermissionByName(ctx context.Context, name string) (*Permission, error) {
	var permission Permission
	err := r.db.WithContext(ctx).First(&permission, "name = ?", strings.TrimSpace(name)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Permission not found.")
		}
		return nil, err
	}
	return &permission, nil
}

func (r *gormRepository) FindAllPermissions(ctx context.Context) ([]Permission, error) {
	var permissions []Permission
	err := r.db.WithContext(ctx).Order("name ASC").Find(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// DeletePermission removes the permission together with its role
// assignments, mirroring the cascade the source schema declared.
func (r *gormRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&RoleHasPermission{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Permission{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Permission not found or already deleted.")
		}
		return nil
	})
}

// --- Assignments ---

func (r *gormRepository) AssignPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	row := &RoleHasPermission{RoleID: roleID, PermissionID: permissionID}
	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("The permission is already assigned to this role.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) RevokePermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&RoleHasPermission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("The permission is not assigned to this role.")
	}
	return nil
}

func (r *gormRepository) FindPermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	var permissions []Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_has_permissions rhp ON rhp.permission_id = permissions.id").
		Where("rhp.role_id = ?", roleID).
		Order("permissions.name ASC").
		Find(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *gormRepository) FindPermissionNamesForRoleName(ctx context.Context, roleName string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("permissions.name").
		Joins("JOIN role_has_permissions rhp ON rhp.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = rhp.role_id").
		Where("roles.name = ? AND roles.deleted_at IS NULL AND permissions.deleted_at IS NULL", roleName).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
