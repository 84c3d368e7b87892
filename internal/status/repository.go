// File: internal/status/repository.go
package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Repository defines the interface for appointment status data operations.
type Repository interface {
	Create(ctx context.Context, st *AppointmentStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error)
	FindBySlug(ctx context.Context, slug string) (*AppointmentStatus, error)
	FindByName(ctx context.Context, name string) (*AppointmentStatus, error)
	FindAll(ctx context.Context, query ListStatusesQuery) ([]AppointmentStatus, error)
	FindAllIncludingDeleted(ctx context.Context) ([]AppointmentStatus, error)
	Update(ctx context.Context, st *AppointmentStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM appointment status repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var orderColumns = map[string]string{
	"name":       "name ASC",
	"-name":      "name DESC",
	"created_at": "created_at ASC",
	"-created_at": "created_at DESC",
	"updated_at": "updated_at ASC",
	"-updated_at": "updated_at DESC",
}

func (r *gormRepository) Create(ctx context.Context, st *AppointmentStatus) error {
	st.Slug = strings.ToLower(strings.TrimSpace(st.Slug))
	err := r.db.WithContext(ctx).Create(st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return common.ErrConflict.WithDetails("A status with this name or slug already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	var st AppointmentStatus
	err := r.db.WithContext(ctx).First(&st, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment status not found.")
		}
		return nil, err
	}
	return &st, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*AppointmentStatus, error) {
	var st AppointmentStatus
	normalizedSlug := strings.ToLower(strings.TrimSpace(slug))
	err := r.db.WithContext(ctx).First(&st, "slug = ?", normalizedSlug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment status not found.")
		}
		return nil, err
	}
	return &st, nil
}

func (r *gormRepository) FindByName(ctx context.Context, name string) (*AppointmentStatus, error) {
	var st AppointmentStatus
	err := r.db.WithContext(ctx).First(&st, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment status not found.")
		}
		return nil, err
	}
	return &st, nil
}

func (r *gormRepository) FindAll(ctx context.Context, query ListStatusesQuery) ([]AppointmentStatus, error) {
	var statuses []AppointmentStatus
	dbQuery := r.db.WithContext(ctx).Model(&AppointmentStatus{})

	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		dbQuery = dbQuery.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	order, ok := orderColumns[query.OrderBy]
	if !ok {
		order = orderColumns["name"]
	}

	err := dbQuery.Order(order).Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *gormRepository) FindAllIncludingDeleted(ctx context.Context) ([]AppointmentStatus, error) {
	var statuses []AppointmentStatus
	err := r.db.WithContext(ctx).Unscoped().Order("name ASC").Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *gormRepository) Update(ctx context.Context, st *AppointmentStatus) error {
	if st.Slug != "" {
		st.Slug = strings.ToLower(strings.TrimSpace(st.Slug))
	}
	err := r.db.WithContext(ctx).Save(st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return common.ErrConflict.WithDetails("A status with this name or slug already exists.")
		}
		return err
	}
	return nil
}

// SoftDelete hides the status unless appointments still reference it.
// The appointments table is addressed by name to avoid importing the
// appointment package from its own dependency.
func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var appointmentCount int64
	if err := r.db.WithContext(ctx).Table("appointments").
		Where("appointment_status_id = ? AND deleted_at IS NULL", id).
		Count(&appointmentCount).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to check for associated appointments.")
	}
	if appointmentCount > 0 {
		return common.ErrConflict.WithDetails(
			fmt.Sprintf("Cannot delete status: %d appointments are still associated with it.", appointmentCount),
		)
	}

	result := r.db.WithContext(ctx).Delete(&AppointmentStatus{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Appointment status not found or already deleted.")
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted status.
func (r *gormRepository) Restore(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	var st AppointmentStatus
	err := r.db.WithContext(ctx).Unscoped().First(&st, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment status not found.")
		}
		return nil, err
	}
	if !st.DeletedAt.Valid {
		return nil, common.ErrBadRequest.WithDetails("Appointment status is not deleted.")
	}

	if err := r.db.WithContext(ctx).Unscoped().Model(&st).Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	st.DeletedAt = gorm.DeletedAt{}
	return &st, nil
}
