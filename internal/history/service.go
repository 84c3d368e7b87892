// File: internal/history/service.go
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/therapist"
)

// Service defines the interface for history business logic.
type Service interface {
	CreateHistory(ctx context.Context, req CreateHistoryRequest) (*History, error)
	GetHistoryByID(ctx context.Context, id uuid.UUID) (*History, error)
	UpdateHistory(ctx context.Context, id uuid.UUID, req UpdateHistoryRequest) (*History, error)
	DeleteHistory(ctx context.Context, id uuid.UUID) error
	ListHistories(ctx context.Context, query ListHistoriesQuery) ([]History, int64, error)
	ListPatientHistories(ctx context.Context, patientID uuid.UUID, pq common.PaginationQuery) ([]History, int64, error)

	// DIU type admin methods
	AdminCreateDIUType(ctx context.Context, req CreateDIUTypeRequest) (*DIUType, error)
	AdminUpdateDIUType(ctx context.Context, id uuid.UUID, req UpdateDIUTypeRequest) (*DIUType, error)
	AdminDeleteDIUType(ctx context.Context, id uuid.UUID) error
	AdminRestoreDIUType(ctx context.Context, id uuid.UUID) (*DIUType, error)
	AdminGetAllDIUTypesIncludingDeleted(ctx context.Context) ([]DIUType, error)

	// DIU type public methods
	GetDIUTypeByID(ctx context.Context, id uuid.UUID) (*DIUType, error)
	GetDIUTypeBySlug(ctx context.Context, slug string) (*DIUType, error)
	GetAllDIUTypes(ctx context.Context, query ListDIUTypesQuery) ([]DIUType, error)
}

type service struct {
	repo          Repository
	patientRepo   patient.Repository
	therapistRepo therapist.Repository
	logger        *zap.Logger
}

// NewService creates a new history service.
func NewService(
	repo Repository,
	patientRepo patient.Repository,
	therapistRepo therapist.Repository,
	logger *zap.Logger,
) Service {
	return &service{
		repo:          repo,
		patientRepo:   patientRepo,
		therapistRepo: therapistRepo,
		logger:        logger,
	}
}

func parseDateParam(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Invalid %s, expected YYYY-MM-DD.", field))
	}
	day := dateOnly(t)
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

func (s *service) validateTherapist(ctx context.Context, id uuid.UUID) error {
	if _, err := s.therapistRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrBadRequest.WithDetails("The specified therapist does not exist.")
		}
		return err
	}
	return nil
}

func (s *service) validateDIUType(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindDIUTypeByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrBadRequest.WithDetails("The specified DIU type does not exist.")
		}
		return err
	}
	return nil
}

func (s *service) CreateHistory(ctx context.Context, req CreateHistoryRequest) (*History, error) {
	if _, err := s.patientRepo.FindByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrBadRequest.WithDetails("The specified patient does not exist.")
		}
		return nil, err
	}
	if req.TherapistID != nil {
		if err := s.validateTherapist(ctx, *req.TherapistID); err != nil {
			return nil, err
		}
	}
	if req.DIUTypeID != nil {
		if err := s.validateDIUType(ctx, *req.DIUTypeID); err != nil {
			return nil, err
		}
	}

	visitDate, err := time.Parse(DateLayout, req.VisitDate)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid visit_date, expected YYYY-MM-DD.")
	}

	h := &History{
		PatientID:    req.PatientID,
		TherapistID:  req.TherapistID,
		VisitDate:    dateOnly(visitDate),
		DIUTypeID:    req.DIUTypeID,
		PrivateNotes: req.PrivateNotes,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		s.logger.Error("Failed to create history entry",
			zap.Error(err), zap.String("patientID", req.PatientID.String()))
		return nil, err
	}
	s.logger.Info("History entry created successfully",
		zap.String("id", h.ID.String()),
		zap.String("patientID", h.PatientID.String()),
		zap.String("visitDate", h.VisitDate.Format(DateLayout)))

	created, err := s.repo.FindByID(ctx, h.ID, true)
	if err != nil {
		// The entry is saved; answer with what we have.
		s.logger.Warn("Could not reload history with associations",
			zap.Error(err), zap.String("id", h.ID.String()))
		created = h
	}
	return created, nil
}

func (s *service) GetHistoryByID(ctx context.Context, id uuid.UUID) (*History, error) {
	return s.repo.FindByID(ctx, id, true)
}

func (s *service) UpdateHistory(ctx context.Context, id uuid.UUID, req UpdateHistoryRequest) (*History, error) {
	h, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if req.TherapistID != nil {
		if err := s.validateTherapist(ctx, *req.TherapistID); err != nil {
			return nil, err
		}
		h.TherapistID = req.TherapistID
	}
	if req.DIUTypeID != nil {
		if err := s.validateDIUType(ctx, *req.DIUTypeID); err != nil {
			return nil, err
		}
		h.DIUTypeID = req.DIUTypeID
	}
	if req.VisitDate != nil {
		visitDate, err := time.Parse(DateLayout, *req.VisitDate)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails("Invalid visit_date, expected YYYY-MM-DD.")
		}
		h.VisitDate = dateOnly(visitDate)
	}
	if req.PrivateNotes != nil {
		h.PrivateNotes = req.PrivateNotes
	}

	if err := s.repo.Update(ctx, h); err != nil {
		s.logger.Error("Failed to update history entry", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("History entry updated successfully", zap.String("id", h.ID.String()))

	updated, err := s.repo.FindByID(ctx, h.ID, true)
	if err != nil {
		s.logger.Warn("Could not reload history with associations",
			zap.Error(err), zap.String("id", h.ID.String()))
		updated = h
	}
	return updated, nil
}

func (s *service) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete history entry", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("History entry deleted successfully", zap.String("id", id.String()))
	return nil
}

func (s *service) ListHistories(ctx context.Context, query ListHistoriesQuery) ([]History, int64, error) {
	criteria := Criteria{Page: query.Page, PageSize: query.PageSize}

	var err error
	if criteria.PatientID, err = parseUUIDParam(query.PatientID, "patient_id"); err != nil {
		return nil, 0, err
	}
	if criteria.TherapistID, err = parseUUIDParam(query.TherapistID, "therapist_id"); err != nil {
		return nil, 0, err
	}
	if criteria.DIUTypeID, err = parseUUIDParam(query.DIUTypeID, "diu_type_id"); err != nil {
		return nil, 0, err
	}
	if criteria.DateFrom, err = parseDateParam(query.StartDate, "start_date"); err != nil {
		return nil, 0, err
	}
	end, err := parseDateParam(query.EndDate, "end_date")
	if err != nil {
		return nil, 0, err
	}
	if end != nil {
		// The end date is inclusive on the wire.
		dayAfter := end.AddDate(0, 0, 1)
		criteria.DateBefore = &dayAfter
	}

	histories, total, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.logger.Error("Failed to list histories", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve histories.")
	}
	return histories, total, nil
}

func (s *service) ListPatientHistories(ctx context.Context, patientID uuid.UUID, pq common.PaginationQuery) ([]History, int64, error) {
	// A missing patient is a 404 on the nested route, not an empty page.
	if _, err := s.patientRepo.FindByID(ctx, patientID); err != nil {
		return nil, 0, err
	}

	criteria := Criteria{PatientID: &patientID, Page: pq.Page, PageSize: pq.PageSize}
	histories, total, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.logger.Error("Failed to list patient histories",
			zap.Error(err), zap.String("patientID", patientID.String()))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve histories.")
	}
	return histories, total, nil
}

// --- DIU type admin methods ---

func (s *service) AdminCreateDIUType(ctx context.Context, req CreateDIUTypeRequest) (*DIUType, error) {
	finalSlug := strings.TrimSpace(req.Slug)
	if finalSlug == "" {
		finalSlug = slug.Make(req.Name)
	} else {
		finalSlug = slug.Make(finalSlug)
	}

	dt := &DIUType{
		Name:        strings.TrimSpace(req.Name),
		Slug:        finalSlug,
		Description: req.Description,
	}

	if err := s.repo.CreateDIUType(ctx, dt); err != nil {
		s.logger.Error("Failed to create DIU type", zap.Error(err), zap.String("name", req.Name))
		return nil, err
	}
	s.logger.Info("DIU type created successfully",
		zap.String("id", dt.ID.String()), zap.String("name", dt.Name))
	return dt, nil
}

func (s *service) AdminUpdateDIUType(ctx context.Context, id uuid.UUID, req UpdateDIUTypeRequest) (*DIUType, error) {
	dt, err := s.repo.FindDIUTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dt.Name = strings.TrimSpace(req.Name)
	if req.Slug != "" {
		dt.Slug = slug.Make(req.Slug)
	} else {
		dt.Slug = slug.Make(req.Name)
	}
	dt.Description = req.Description

	if err := s.repo.UpdateDIUType(ctx, dt); err != nil {
		s.logger.Error("Failed to update DIU type", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("DIU type updated successfully", zap.String("id", dt.ID.String()))
	return dt, nil
}

func (s *service) AdminDeleteDIUType(ctx context.Context, id uuid.UUID) error {
	// Repository SoftDeleteDIUType refuses when histories still reference the type.
	if err := s.repo.SoftDeleteDIUType(ctx, id); err != nil {
		s.logger.Error("Failed to delete DIU type", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("DIU type deleted successfully", zap.String("id", id.String()))
	return nil
}

func (s *service) AdminRestoreDIUType(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	dt, err := s.repo.RestoreDIUType(ctx, id)
	if err != nil {
		s.logger.Error("Failed to restore DIU type", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("DIU type restored successfully", zap.String("id", dt.ID.String()))
	return dt, nil
}

func (s *service) AdminGetAllDIUTypesIncludingDeleted(ctx context.Context) ([]DIUType, error) {
	diuTypes, err := s.repo.FindAllDIUTypesIncludingDeleted(ctx)
	if err != nil {
		s.logger.Error("Failed to list DIU types including deleted", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve DIU types.")
	}
	return diuTypes, nil
}

// --- DIU type public methods ---

func (s *service) GetDIUTypeByID(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	return s.repo.FindDIUTypeByID(ctx, id)
}

func (s *service) GetDIUTypeBySlug(ctx context.Context, slugToFind string) (*DIUType, error) {
	return s.repo.FindDIUTypeBySlug(ctx, slugToFind)
}

func (s *service) GetAllDIUTypes(ctx context.Context, query ListDIUTypesQuery) ([]DIUType, error) {
	diuTypes, err := s.repo.FindAllDIUTypes(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list DIU types", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve DIU types.")
	}
	return diuTypes, nil
}
