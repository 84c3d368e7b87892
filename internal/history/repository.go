// File: internal/history/repository.go
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Criteria narrows a history listing. DateFrom is inclusive, DateBefore
// exclusive.
type Criteria struct {
	PatientID   *uuid.UUID
	TherapistID *uuid.UUID
	DIUTypeID   *uuid.UUID
	DateFrom    *time.Time
	DateBefore  *time.Time
	Page        int
	PageSize    int
}

// Repository defines the interface for history and DIU type data operations.
type Repository interface {
	Create(ctx context.Context, h *History) error
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*History, error)
	Update(ctx context.Context, h *History) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, criteria Criteria) ([]History, int64, error)

	CreateDIUType(ctx context.Context, dt *DIUType) error
	FindDIUTypeByID(ctx context.Context, id uuid.UUID) (*DIUType, error)
	FindDIUTypeBySlug(ctx context.Context, slug string) (*DIUType, error)
	FindAllDIUTypes(ctx context.Context, query ListDIUTypesQuery) ([]DIUType, error)
	FindAllDIUTypesIncludingDeleted(ctx context.Context) ([]DIUType, error)
	UpdateDIUType(ctx context.Context, dt *DIUType) error
	SoftDeleteDIUType(ctx context.Context, id uuid.UUID) error
	RestoreDIUType(ctx context.Context, id uuid.UUID) (*DIUType, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM history repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// dateOnly strips the time-of-day so visit dates compare as calendar days.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *gormRepository) preloader(query *gorm.DB) *gorm.DB {
	return query.Preload("Patient").Preload("Therapist").Preload("DIUType")
}

func (r *gormRepository) Create(ctx context.Context, h *History) error {
	h.VisitDate = dateOnly(h.VisitDate)
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*History, error) {
	query := r.db.WithContext(ctx)
	if preloadAssociations {
		query = r.preloader(query)
	}
	var h History
	if err := query.First(&h, "histories.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("History entry not found.")
		}
		return nil, err
	}
	return &h, nil
}

func (r *gormRepository) Update(ctx context.Context, h *History) error {
	h.VisitDate = dateOnly(h.VisitDate)
	// Omit associations: FK columns carry the change, and Save would
	// otherwise try to upsert preloaded rows.
	if err := r.db.WithContext(ctx).
		Omit("Patient", "Therapist", "DIUType").
		Save(h).Error; err != nil {
		return fmt.Errorf("failed to update history: %w", err)
	}
	return nil
}

func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&History{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("History entry not found.")
	}
	return nil
}

func (r *gormRepository) applyCriteria(query *gorm.DB, criteria Criteria) *gorm.DB {
	if criteria.PatientID != nil {
		query = query.Where("patient_id = ?", *criteria.PatientID)
	}
	if criteria.TherapistID != nil {
		query = query.Where("therapist_id = ?", *criteria.TherapistID)
	}
	if criteria.DIUTypeID != nil {
		query = query.Where("diu_type_id = ?", *criteria.DIUTypeID)
	}
	if criteria.DateFrom != nil {
		query = query.Where("visit_date >= ?", dateOnly(*criteria.DateFrom))
	}
	if criteria.DateBefore != nil {
		query = query.Where("visit_date < ?", dateOnly(*criteria.DateBefore))
	}
	return query
}

func (r *gormRepository) FindAll(ctx context.Context, criteria Criteria) ([]History, int64, error) {
	dbQuery := r.applyCriteria(r.db.WithContext(ctx).Model(&History{}), criteria)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count histories: %w", err)
	}

	pq := common.PaginationQuery{Page: criteria.Page, PageSize: criteria.PageSize}
	var histories []History
	err := r.preloader(dbQuery).
		Order("visit_date DESC, created_at DESC").
		Offset(pq.Offset()).
		Limit(pq.Limit()).
		Find(&histories).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list histories: %w", err)
	}
	return histories, total, nil
}

// --- DIU types ---

var diuOrderColumns = map[string]string{
	"name":        "name ASC",
	"-name":       "name DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"updated_at":  "updated_at ASC",
	"-updated_at": "updated_at DESC",
}

func (r *gormRepository) CreateDIUType(ctx context.Context, dt *DIUType) error {
	dt.Slug = strings.ToLower(strings.TrimSpace(dt.Slug))
	if err := r.db.WithContext(ctx).Create(dt).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A DIU type with this name or slug already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindDIUTypeByID(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	var dt DIUType
	err := r.db.WithContext(ctx).First(&dt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("DIU type not found.")
		}
		return nil, err
	}
	return &dt, nil
}

func (r *gormRepository) FindDIUTypeBySlug(ctx context.Context, slug string) (*DIUType, error) {
	var dt DIUType
	normalizedSlug := strings.ToLower(strings.TrimSpace(slug))
	err := r.db.WithContext(ctx).First(&dt, "slug = ?", normalizedSlug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("DIU type not found.")
		}
		return nil, err
	}
	return &dt, nil
}

func (r *gormRepository) FindAllDIUTypes(ctx context.Context, query ListDIUTypesQuery) ([]DIUType, error) {
	var diuTypes []DIUType
	dbQuery := r.db.WithContext(ctx).Model(&DIUType{})

	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		dbQuery = dbQuery.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	order, ok := diuOrderColumns[query.OrderBy]
	if !ok {
		order = diuOrderColumns["name"]
	}

	if err := dbQuery.Order(order).Find(&diuTypes).Error; err != nil {
		return nil, err
	}
	return diuTypes, nil
}

func (r *gormRepository) FindAllDIUTypesIncludingDeleted(ctx context.Context) ([]DIUType, error) {
	var diuTypes []DIUType
	err := r.db.WithContext(ctx).Unscoped().Order("name ASC").Find(&diuTypes).Error
	if err != nil {
		return nil, err
	}
	return diuTypes, nil
}

func (r *gormRepository) UpdateDIUType(ctx context.Context, dt *DIUType) error {
	if dt.Slug != "" {
		dt.Slug = strings.ToLower(strings.TrimSpace(dt.Slug))
	}
	if err := r.db.WithContext(ctx).Save(dt).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A DIU type with this name or slug already exists.")
		}
		return err
	}
	return nil
}

// SoftDeleteDIUType hides the DIU type unless histories still reference it.
func (r *gormRepository) SoftDeleteDIUType(ctx context.Context, id uuid.UUID) error {
	var historyCount int64
	if err := r.db.WithContext(ctx).Model(&History{}).
		Where("diu_type_id = ?", id).
		Count(&historyCount).Error; err != nil {
		return common.ErrInternalServer.WithDetails("Failed to check for associated histories.")
	}
	if historyCount > 0 {
		return common.ErrConflict.WithDetails(
			fmt.Sprintf("Cannot delete DIU type: %d histories are still associated with it.", historyCount),
		)
	}

	result := r.db.WithContext(ctx).Delete(&DIUType{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("DIU type not found or already deleted.")
	}
	return nil
}

// RestoreDIUType clears deleted_at on a soft-deleted DIU type.
func (r *gormRepository) RestoreDIUType(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	var dt DIUType
	err := r.db.WithContext(ctx).Unscoped().First(&dt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("DIU type not found.")
		}
		return nil, err
	}
	if !dt.DeletedAt.Valid {
		return nil, common.ErrBadRequest.WithDetails("DIU type is not deleted.")
	}

	if err := r.db.WithContext(ctx).Unscoped().Model(&dt).Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	dt.DeletedAt = gorm.DeletedAt{}
	return &dt, nil
}
