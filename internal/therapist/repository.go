// File: internal/therapist/repository.go
package therapist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Repository defines the interface for therapist data operations.
type Repository interface {
	Create(ctx context.Context, t *Therapist) error
	FindByID(ctx context.Context, id uuid.UUID) (*Therapist, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*Therapist, error)
	FindAll(ctx context.Context, query ListTherapistsQuery) ([]Therapist, int64, error)
	Update(ctx context.Context, t *Therapist) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM therapist repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

func (r *gormRepository) Create(ctx context.Context, t *Therapist) error {
	t.DocumentNumber = strings.TrimSpace(t.DocumentNumber)
	err := r.db.WithContext(ctx).Create(t).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A therapist with this document number already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	var t Therapist
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Therapist not found.")
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*Therapist, error) {
	var t Therapist
	err := r.db.WithContext(ctx).First(&t, "document_number = ?", strings.TrimSpace(documentNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Therapist not found.")
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) FindAll(ctx context.Context, query ListTherapistsQuery) ([]Therapist, int64, error) {
	var therapists []Therapist
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Therapist{})
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		dbQuery = dbQuery.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(document_number) LIKE ?",
			like, like, like,
		)
	}
	if specialty := strings.TrimSpace(query.Specialty); specialty != "" {
		// Postgres array membership; specialties is a text[] column.
		dbQuery = dbQuery.Where("? = ANY(specialties)", specialty)
	}
	if query.IsActive != nil {
		dbQuery = dbQuery.Where("is_active = ?", *query.IsActive)
	}

	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := dbQuery.
		Order("last_name ASC, first_name ASC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&therapists).Error
	if err != nil {
		return nil, 0, err
	}
	return therapists, total, nil
}

func (r *gormRepository) Update(ctx context.Context, t *Therapist) error {
	err := r.db.WithContext(ctx).Save(t).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A therapist with this document number already exists.")
		}
		return err
	}
	return nil
}

// SoftDelete hides the therapist unless non-deleted appointments still
// reference them.
func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var appointmentCount int64
	if err := r.db.WithContext(ctx).Table("appointments").
		Where("therapist_id = ? AND deleted_at IS NULL", id).
		Count(&appointmentCount).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to check for associated appointments.")
	}
	if appointmentCount > 0 {
		return common.ErrConflict.WithDetails(
			fmt.Sprintf("Cannot delete therapist: %d appointments are still associated with them.", appointmentCount),
		)
	}

	result := r.db.WithContext(ctx).Delete(&Therapist{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Therapist not found or already deleted.")
	}
	return nil
}
