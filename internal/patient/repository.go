// File: internal/patient/repository.go
package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Repository defines the interface for patient data operations.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*Patient, error)
	FindAll(ctx context.Context, query ListPatientsQuery) ([]Patient, int64, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM patient repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

func (r *gormRepository) Create(ctx context.Context, p *Patient) error {
	p.DocumentNumber = strings.TrimSpace(p.DocumentNumber)
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A patient with this document number already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Patient not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*Patient, error) {
	var p Patient
	err := r.db.WithContext(ctx).First(&p, "document_number = ?", strings.TrimSpace(documentNumber)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Patient not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindAll(ctx context.Context, query ListPatientsQuery) ([]Patient, int64, error) {
	var patients []Patient
	var total int64

	dbQuery := r.db.WithContext(ctx).Model(&Patient{})
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		dbQuery = dbQuery.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(document_number) LIKE ?",
			like, like, like,
		)
	}

	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := dbQuery.
		Order("last_name ASC, first_name ASC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Patient) error {
	err := r.db.WithContext(ctx).Save(p).Error
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A patient with this document number already exists.")
		}
		return err
	}
	return nil
}

// SoftDelete hides the patient unless non-deleted appointments still
// reference them.
func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var appointmentCount int64
	if err := r.db.WithContext(ctx).Table("appointments").
		Where("patient_id = ? AND deleted_at IS NULL", id).
		Count(&appointmentCount).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to check for associated appointments.")
	}
	if appointmentCount > 0 {
		return common.ErrConflict.WithDetails(
			fmt.Sprintf("Cannot delete patient: %d appointments are still associated with them.", appointmentCount),
		)
	}

	result := r.db.WithContext(ctx).Delete(&Patient{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Patient not found or already deleted.")
	}
	return nil
}
