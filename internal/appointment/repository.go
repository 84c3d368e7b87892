// File: internal/appointment/repository.go
package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
)

// Criteria narrows appointment listings. Nil fields are ignored. Date
// bounds form a half-open window: DateFrom is inclusive, DateBefore is
// exclusive.
type Criteria struct {
	ExactDate   *time.Time
	DateFrom    *time.Time
	DateBefore  *time.Time
	StatusID    *uuid.UUID
	PatientID   *uuid.UUID
	TherapistID *uuid.UUID
	Page        int
	PageSize    int
}

// Repository defines the interface for appointment data operations.
type Repository interface {
	// Create inserts the appointment and issues its ticket in one
	// transaction. The created ticket is attached to the appointment.
	Create(ctx context.Context, appt *Appointment) error
	FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, statusID uuid.UUID) error
	// SoftDelete hides the appointment and its ticket in one transaction.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, criteria Criteria) ([]Appointment, int64, error)
	// FindByDate returns the non-deleted appointments of a day, optionally
	// narrowed to one therapist. Used for availability checks.
	FindByDate(ctx context.Context, day time.Time, therapistID *uuid.UUID) ([]Appointment, error)
	FindTicketByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error)
	// FindTicketsByDay lists a day's tickets ordered by sequence.
	FindTicketsByDay(ctx context.Context, day time.Time) ([]Ticket, error)
	// SweepPendingBefore moves still-pending appointments dated before the
	// given day to the completed status and reports how many changed.
	SweepPendingBefore(ctx context.Context, before time.Time, pendingStatusID, completedStatusID uuid.UUID) (int64, error)
	// FindAllForSync pages through appointments with associations loaded,
	// for bulk indexing.
	FindAllForSync(ctx context.Context, offset, limit int) ([]Appointment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM appointment repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// preloader applies the associations every detail view needs.
func (r *gormRepository) preloader(query *gorm.DB) *gorm.DB {
	return query.Preload("Patient").
		Preload("Therapist").
		Preload("Status").
		Preload("Ticket")
}

// DateOnly normalizes a time to midnight UTC so stored dates and query
// parameters always compare equal, regardless of the caller's zone.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *gormRepository) Create(ctx context.Context, appt *Appointment) error {
	appt.AppointmentDate = DateOnly(appt.AppointmentDate)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		seq, err := nextTicketSequence(tx, appt.AppointmentDate)
		if err != nil {
			return fmt.Errorf("failed to compute ticket sequence: %w", err)
		}
		ticket := &Ticket{
			AppointmentID: appt.ID,
			TicketNumber:  TicketNumberFor(appt.AppointmentDate, seq),
		}
		if err := tx.Create(ticket).Error; err != nil {
			if isUniqueViolation(err) {
				// A concurrent booking took this number; the whole creation
				// rolls back rather than leaving an appointment without a ticket.
				return common.ErrConflict.WithDetails("Could not issue a ticket number, please retry.")
			}
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		appt.Ticket = ticket
		return nil
	})
}

// nextTicketSequence finds the highest number issued for the day,
// including soft-deleted tickets so their numbers are never reused.
func nextTicketSequence(tx *gorm.DB, day time.Time) (int, error) {
	prefix := fmt.Sprintf("TKT-%s-", day.Format("20060102"))
	var last Ticket
	err := tx.Unscoped().
		Where("ticket_number LIKE ?", prefix+"%").
		Order("ticket_number DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	seq, convErr := strconv.Atoi(strings.TrimPrefix(last.TicketNumber, prefix))
	if convErr != nil {
		return 0, fmt.Errorf("malformed ticket number %q: %w", last.TicketNumber, convErr)
	}
	return seq + 1, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*Appointment, error) {
	query := r.db.WithContext(ctx)
	if preloadAssociations {
		query = r.preloader(query)
	}
	var appt Appointment
	if err := query.First(&appt, "appointments.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment not found.")
		}
		return nil, err
	}
	return &appt, nil
}

func (r *gormRepository) Update(ctx context.Context, appt *Appointment) error {
	appt.AppointmentDate = DateOnly(appt.AppointmentDate)
	// Omit associations: FK columns carry the change, and Save would
	// otherwise try to upsert preloaded rows.
	if err := r.db.WithContext(ctx).
		Omit("Patient", "Therapist", "Status", "Ticket").
		Save(appt).Error; err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, statusID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Appointment{}).
		Where("id = ?", id).
		Update("appointment_status_id", statusID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Appointment not found.")
	}
	return nil
}

func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Appointment{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Appointment not found.")
		}
		// The queue slip goes with its appointment.
		if err := tx.Where("appointment_id = ?", id).Delete(&Ticket{}).Error; err != nil {
			return fmt.Errorf("failed to delete ticket: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) applyCriteria(query *gorm.DB, criteria Criteria) *gorm.DB {
	if criteria.ExactDate != nil {
		query = query.Where("appointment_date = ?", DateOnly(*criteria.ExactDate))
	}
	if criteria.DateFrom != nil {
		query = query.Where("appointment_date >= ?", DateOnly(*criteria.DateFrom))
	}
	if criteria.DateBefore != nil {
		query = query.Where("appointment_date < ?", DateOnly(*criteria.DateBefore))
	}
	if criteria.StatusID != nil {
		query = query.Where("appointment_status_id = ?", *criteria.StatusID)
	}
	if criteria.PatientID != nil {
		query = query.Where("patient_id = ?", *criteria.PatientID)
	}
	if criteria.TherapistID != nil {
		query = query.Where("therapist_id = ?", *criteria.TherapistID)
	}
	return query
}

func (r *gormRepository) FindAll(ctx context.Context, criteria Criteria) ([]Appointment, int64, error) {
	dbQuery := r.applyCriteria(r.db.WithContext(ctx).Model(&Appointment{}), criteria)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	pq := common.PaginationQuery{Page: criteria.Page, PageSize: criteria.PageSize}
	var appts []Appointment
	err := r.preloader(dbQuery).
		Order("appointment_date DESC, hour DESC").
		Offset(pq.Offset()).
		Limit(pq.Limit()).
		Find(&appts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, total, nil
}

func (r *gormRepository) FindByDate(ctx context.Context, day time.Time, therapistID *uuid.UUID) ([]Appointment, error) {
	query := r.db.WithContext(ctx).Where("appointment_date = ?", DateOnly(day))
	if therapistID != nil {
		query = query.Where("therapist_id = ?", *therapistID)
	}
	var appts []Appointment
	if err := query.Order("hour ASC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to load appointments for %s: %w", day.Format(DateLayout), err)
	}
	return appts, nil
}

func (r *gormRepository) FindTicketByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).First(&ticket, "appointment_id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Ticket not found for this appointment.")
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *gormRepository) FindTicketsByDay(ctx context.Context, day time.Time) ([]Ticket, error) {
	// The day is encoded in the number itself; ordering by it is
	// ordering by sequence.
	prefix := fmt.Sprintf("TKT-%s-", day.Format("20060102"))
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("ticket_number LIKE ?", prefix+"%").
		Order("ticket_number ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for %s: %w", day.Format(DateLayout), err)
	}
	return tickets, nil
}

func (r *gormRepository) SweepPendingBefore(ctx context.Context, before time.Time, pendingStatusID, completedStatusID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Appointment{}).
		Where("appointment_status_id = ? AND appointment_date < ?", pendingStatusID, DateOnly(before)).
		Update("appointment_status_id", completedStatusID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep pending appointments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]Appointment, error) {
	var appts []Appointment
	err := r.preloader(r.db.WithContext(ctx)).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments for sync: %w", err)
	}
	return appts, nil
}
