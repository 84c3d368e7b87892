// File: internal/appointment/service.go
package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/status"
	"clinic_backend/internal/therapist"
)

// SearchIndexer maintains and queries the optional appointment search
// index. Writes are best-effort: implementations log failures instead
// of propagating them, so a broken index never fails a booking. Search
// reports the feature unavailable when no index backend is configured.
type SearchIndexer interface {
	Index(ctx context.Context, appt *Appointment)
	Remove(ctx context.Context, id uuid.UUID)
	Search(ctx context.Context, query SearchQuery) ([]SearchHit, int64, error)
}

// Service defines the interface for appointment business logic.
type Service interface {
	CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, statusID uuid.UUID) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointments(ctx context.Context, query ListAppointmentsQuery) ([]Appointment, int64, error)
	ListCompletedAppointments(ctx context.Context, query StatusBucketQuery) ([]Appointment, int64, error)
	ListPendingAppointments(ctx context.Context, query StatusBucketQuery) ([]Appointment, int64, error)
	CheckAvailability(ctx context.Context, query AvailabilityQuery) (*AvailabilityResponse, error)
	GetTicket(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error)
	ListTicketsByDay(ctx context.Context, date string) ([]Ticket, error)
	SearchAppointments(ctx context.Context, query SearchQuery) ([]SearchHit, int64, error)
	// SweepOverduePending closes out pending appointments dated before
	// today. Run by the scheduled sweep job.
	SweepOverduePending(ctx context.Context) (int64, error)
}

type service struct {
	repo          Repository
	patientRepo   patient.Repository
	therapistRepo therapist.Repository
	statusRepo    status.Repository
	indexer       SearchIndexer
	cfg           *config.Config
	logger        *zap.Logger
}

// NewService creates a new appointment service.
func NewService(
	repo Repository,
	patientRepo patient.Repository,
	therapistRepo therapist.Repository,
	statusRepo status.Repository,
	indexer SearchIndexer,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		repo:          repo,
		patientRepo:   patientRepo,
		therapistRepo: therapistRepo,
		statusRepo:    statusRepo,
		indexer:       indexer,
		cfg:           cfg,
		logger:        logger,
	}
}

// today is the clinic's current date: the wall-clock day in APP_TIMEZONE,
// normalized like every stored appointment date.
func (s *service) today() time.Time {
	return DateOnly(time.Now().In(s.cfg.Location()))
}

func parseDateParam(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Invalid %s, expected YYYY-MM-DD.", field))
	}
	day := DateOnly(t)
	return &day, nil
}

func parseUUIDParam(value, field string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Invalid %s format.", field))
	}
	return &id, nil
}

// buildListCriteria translates the wire-level filter strings shared by
// the listing endpoints into repository criteria. The end date is
// inclusive on the wire, so the stored window is half-open at end+1day.
func buildListCriteria(date, startDate, endDate, statusID, patientID, therapistID string, pq common.PaginationQuery) (Criteria, error) {
	criteria := Criteria{Page: pq.Page, PageSize: pq.PageSize}

	var err error
	if criteria.ExactDate, err = parseDateParam(date, "date"); err != nil {
		return criteria, err
	}
	if criteria.DateFrom, err = parseDateParam(startDate, "start_date"); err != nil {
		return criteria, err
	}
	end, err := parseDateParam(endDate, "end_date")
	if err != nil {
		return criteria, err
	}
	if end != nil {
		dayAfter := end.AddDate(0, 0, 1)
		criteria.DateBefore = &dayAfter
	}
	if criteria.StatusID, err = parseUUIDParam(statusID, "status_id"); err != nil {
		return criteria, err
	}
	if criteria.PatientID, err = parseUUIDParam(patientID, "patient_id"); err != nil {
		return criteria, err
	}
	if criteria.TherapistID, err = parseUUIDParam(therapistID, "therapist_id"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

// resolveStatusID validates an explicitly requested status or falls
// back to the seeded pending status for new appointments.
func (s *service) resolveStatusID(ctx context.Context, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		st, err := s.statusRepo.FindByID(ctx, *explicit)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return uuid.Nil, common.ErrBadRequest.WithDetails("The specified status does not exist.")
			}
			return uuid.Nil, err
		}
		return st.ID, nil
	}

	st, err := s.statusRepo.FindByName(ctx, status.NamePending)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Default pending status is not seeded", zap.String("name", status.NamePending))
			return uuid.Nil, common.ErrInternalServer.WithDetails("Default appointment status is not configured.")
		}
		return uuid.Nil, err
	}
	return st.ID, nil
}

func (s *service) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	if _, err := s.patientRepo.FindByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrBadRequest.WithDetails("The specified patient does not exist.")
		}
		return nil, err
	}
	if req.TherapistID != nil {
		if _, err := s.therapistRepo.FindByID(ctx, *req.TherapistID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrBadRequest.WithDetails("The specified therapist does not exist.")
			}
			return nil, err
		}
	}
	statusID, err := s.resolveStatusID(ctx, req.StatusID)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(DateLayout, req.AppointmentDate)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid appointment_date, expected YYYY-MM-DD.")
	}
	duration := s.cfg.DefaultAppointmentDuration
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	appt := &Appointment{
		PatientID:           req.PatientID,
		TherapistID:         req.TherapistID,
		AppointmentDate:     DateOnly(date),
		Hour:                req.Hour,
		DurationMinutes:     duration,
		AppointmentStatusID: statusID,
		Reason:              req.Reason,
		Notes:               req.Notes,
		Amount:              req.Amount,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		s.logger.Error("Failed to create appointment",
			zap.Error(err), zap.String("patientID", req.PatientID.String()))
		return nil, err
	}
	s.logger.Info("Appointment created successfully",
		zap.String("id", appt.ID.String()),
		zap.String("ticketNumber", appt.Ticket.TicketNumber),
		zap.String("date", appt.AppointmentDate.Format(DateLayout)),
		zap.String("hour", appt.Hour))

	created, err := s.repo.FindByID(ctx, appt.ID, true)
	if err != nil {
		// The booking succeeded; answer with what we have.
		s.logger.Warn("Could not reload appointment with associations",
			zap.Error(err), zap.String("id", appt.ID.String()))
		created = appt
	}
	s.indexer.Index(ctx, created)
	return created, nil
}

func (s *service) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.FindByID(ctx, id, true)
}

func (s *service) UpdateAppointment(ctx context.Context, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if req.PatientID != nil && *req.PatientID != appt.PatientID {
		if _, err := s.patientRepo.FindByID(ctx, *req.PatientID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrBadRequest.WithDetails("The specified patient does not exist.")
			}
			return nil, err
		}
		appt.PatientID = *req.PatientID
	}
	if req.TherapistID != nil {
		if appt.TherapistID == nil || *appt.TherapistID != *req.TherapistID {
			if _, err := s.therapistRepo.FindByID(ctx, *req.TherapistID); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return nil, common.ErrBadRequest.WithDetails("The specified therapist does not exist.")
				}
				return nil, err
			}
		}
		appt.TherapistID = req.TherapistID
	}
	if req.StatusID != nil && *req.StatusID != appt.AppointmentStatusID {
		st, err := s.statusRepo.FindByID(ctx, *req.StatusID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrBadRequest.WithDetails("The specified status does not exist.")
			}
			return nil, err
		}
		appt.AppointmentStatusID = st.ID
	}

	slotChanged := false
	if req.AppointmentDate != nil {
		date, err := time.Parse(DateLayout, *req.AppointmentDate)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails("Invalid appointment_date, expected YYYY-MM-DD.")
		}
		if newDate := DateOnly(date); !newDate.Equal(appt.AppointmentDate) {
			appt.AppointmentDate = newDate
			slotChanged = true
		}
	}
	if req.Hour != nil && *req.Hour != appt.Hour {
		appt.Hour = *req.Hour
		slotChanged = true
	}
	if req.DurationMinutes != nil && *req.DurationMinutes != appt.DurationMinutes {
		appt.DurationMinutes = *req.DurationMinutes
		slotChanged = true
	}
	if req.Reason != nil {
		appt.Reason = req.Reason
	}
	if req.Notes != nil {
		appt.Notes = req.Notes
	}
	if req.Amount != nil {
		appt.Amount = req.Amount
	}

	if slotChanged {
		conflicts, err := s.conflictsFor(ctx, appt.AppointmentDate, appt.Hour, appt.DurationMinutes, appt.TherapistID, appt.ID)
		if err != nil {
			return nil, err
		}
		if conflicts > 0 {
			return nil, common.ErrConflict.WithDetails(
				fmt.Sprintf("The requested time slot overlaps %d existing appointment(s).", conflicts))
		}
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		s.logger.Error("Failed to update appointment", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Appointment updated successfully", zap.String("id", id.String()))

	updated, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		s.logger.Warn("Could not reload appointment with associations",
			zap.Error(err), zap.String("id", id.String()))
		updated = appt
	}
	s.indexer.Index(ctx, updated)
	return updated, nil
}

func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, statusID uuid.UUID) (*Appointment, error) {
	st, err := s.statusRepo.FindByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrBadRequest.WithDetails("The specified status does not exist.")
		}
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, st.ID); err != nil {
		s.logger.Error("Failed to change appointment status", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Appointment status changed",
		zap.String("id", id.String()), zap.String("status", st.Name))

	updated, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.indexer.Index(ctx, updated)
	return updated, nil
}

func (s *service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete appointment", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("Appointment deleted successfully", zap.String("id", id.String()))
	s.indexer.Remove(ctx, id)
	return nil
}

func (s *service) ListAppointments(ctx context.Context, query ListAppointmentsQuery) ([]Appointment, int64, error) {
	criteria, err := buildListCriteria(query.Date, query.StartDate, query.EndDate,
		query.StatusID, query.PatientID, query.TherapistID, query.PaginationQuery)
	if err != nil {
		return nil, 0, err
	}
	appts, total, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.logger.Error("Failed to list appointments", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve appointments.")
	}
	return appts, total, nil
}

// bucketCriteria narrows criteria to the named status. When that status
// is not seeded the bucket falls back to a date bound relative to
// today: past days count as completed, today onward as pending. The
// fallback tightens explicit date filters instead of replacing them.
func (s *service) bucketCriteria(ctx context.Context, criteria *Criteria, statusName string, fromToday bool) error {
	st, err := s.statusRepo.FindByName(ctx, statusName)
	if err == nil {
		criteria.StatusID = &st.ID
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to resolve status by name", zap.Error(err), zap.String("name", statusName))
		return common.ErrInternalServer.WithDetails("Could not resolve appointment status.")
	}

	today := s.today()
	if fromToday {
		if criteria.DateFrom == nil || today.After(*criteria.DateFrom) {
			criteria.DateFrom = &today
		}
	} else {
		if criteria.DateBefore == nil || today.Before(*criteria.DateBefore) {
			criteria.DateBefore = &today
		}
	}
	return nil
}

func (s *service) ListCompletedAppointments(ctx context.Context, query StatusBucketQuery) ([]Appointment, int64, error) {
	criteria, err := buildListCriteria(query.Date, query.StartDate, query.EndDate,
		query.StatusID, query.PatientID, query.TherapistID, query.PaginationQuery)
	if err != nil {
		return nil, 0, err
	}
	// An explicit status filter wins over the bucket's own criterion.
	if criteria.StatusID == nil {
		if err := s.bucketCriteria(ctx, &criteria, status.NameCompleted, false); err != nil {
			return nil, 0, err
		}
	}
	appts, total, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.logger.Error("Failed to list completed appointments", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve appointments.")
	}
	return appts, total, nil
}

func (s *service) ListPendingAppointments(ctx context.Context, query StatusBucketQuery) ([]Appointment, int64, error) {
	criteria, err := buildListCriteria(query.Date, query.StartDate, query.EndDate,
		query.StatusID, query.PatientID, query.TherapistID, query.PaginationQuery)
	if err != nil {
		return nil, 0, err
	}
	if criteria.StatusID == nil {
		if err := s.bucketCriteria(ctx, &criteria, status.NamePending, true); err != nil {
			return nil, 0, err
		}
	}
	appts, total, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.logger.Error("Failed to list pending appointments", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve appointments.")
	}
	return appts, total, nil
}

// conflictsFor counts appointments on the same day whose time window
// overlaps the candidate window, each with its own duration. Two
// half-open intervals overlap when each starts before the other ends,
// which also flags two appointments booked at the exact same hour.
func (s *service) conflictsFor(ctx context.Context, day time.Time, hour string, durationMinutes int, therapistID *uuid.UUID, excludeID uuid.UUID) (int, error) {
	sameDay, err := s.repo.FindByDate(ctx, day, therapistID)
	if err != nil {
		s.logger.Error("Failed to load appointments for availability check", zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not check availability.")
	}

	loc := s.cfg.Location()
	candidate := Appointment{AppointmentDate: DateOnly(day), Hour: hour, DurationMinutes: durationMinutes}
	candidateStart, err := candidate.StartsAt(loc)
	if err != nil {
		return 0, common.ErrBadRequest.WithDetails("Invalid hour, expected HH:MM.")
	}
	candidateEnd := candidateStart.Add(time.Duration(durationMinutes) * time.Minute)

	conflicts := 0
	for i := range sameDay {
		existing := &sameDay[i]
		if existing.ID == excludeID {
			continue
		}
		existingStart, err := existing.StartsAt(loc)
		if err != nil {
			s.logger.Warn("Skipping appointment with malformed hour",
				zap.String("id", existing.ID.String()), zap.Error(err))
			continue
		}
		existingEnd := existingStart.Add(time.Duration(existing.DurationMinutes) * time.Minute)
		if existingStart.Before(candidateEnd) && candidateStart.Before(existingEnd) {
			conflicts++
		}
	}
	return conflicts, nil
}

func (s *service) CheckAvailability(ctx context.Context, query AvailabilityQuery) (*AvailabilityResponse, error) {
	date, err := time.Parse(DateLayout, query.Date)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid date, expected YYYY-MM-DD.")
	}
	duration := query.DurationMinutes
	if duration <= 0 {
		duration = s.cfg.DefaultAppointmentDuration
	}
	therapistID, err := parseUUIDParam(query.TherapistID, "therapist_id")
	if err != nil {
		return nil, err
	}

	conflicts, err := s.conflictsFor(ctx, date, query.Hour, duration, therapistID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{
		IsAvailable:             conflicts == 0,
		ConflictingAppointments: conflicts,
	}, nil
}

func (s *service) GetTicket(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error) {
	return s.repo.FindTicketByAppointmentID(ctx, appointmentID)
}

func (s *service) ListTicketsByDay(ctx context.Context, date string) ([]Ticket, error) {
	day, err := parseDateParam(date, "date")
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, common.ErrBadRequest.WithDetails("Query parameter 'date' is required, expected YYYY-MM-DD.")
	}
	tickets, err := s.repo.FindTicketsByDay(ctx, *day)
	if err != nil {
		s.logger.Error("Failed to list tickets", zap.Error(err), zap.String("date", date))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve tickets.")
	}
	return tickets, nil
}

func (s *service) SearchAppointments(ctx context.Context, query SearchQuery) ([]SearchHit, int64, error) {
	return s.indexer.Search(ctx, query)
}

func (s *service) SweepOverduePending(ctx context.Context) (int64, error) {
	pending, err := s.statusRepo.FindByName(ctx, status.NamePending)
	if err != nil {
		return 0, fmt.Errorf("pending status lookup failed: %w", err)
	}
	completed, err := s.statusRepo.FindByName(ctx, status.NameCompleted)
	if err != nil {
		return 0, fmt.Errorf("completed status lookup failed: %w", err)
	}

	count, err := s.repo.SweepPendingBefore(ctx, s.today(), pending.ID, completed.ID)
	if err != nil {
		s.logger.Error("Failed to close out overdue appointments", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Closed out overdue appointments", zap.Int64("count", count))
	}
	return count, nil
}
