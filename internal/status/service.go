// File: internal/status/service.go
package status

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Service defines the interface for appointment status business logic.
type Service interface {
	// Admin methods
	AdminCreateStatus(ctx context.Context, req CreateStatusRequest) (*AppointmentStatus, error)
	AdminUpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*AppointmentStatus, error)
	AdminDeleteStatus(ctx context.Context, id uuid.UUID) error
	AdminRestoreStatus(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error)
	AdminGetAllStatusesIncludingDeleted(ctx context.Context) ([]AppointmentStatus, error)

	// Public methods
	GetStatusByID(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error)
	GetStatusBySlug(ctx context.Context, slug string) (*AppointmentStatus, error)
	GetAllStatuses(ctx context.Context, query ListStatusesQuery) ([]AppointmentStatus, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new appointment status service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// --- Admin Methods ---

func (s *service) AdminCreateStatus(ctx context.Context, req CreateStatusRequest) (*AppointmentStatus, error) {
	finalSlug := strings.TrimSpace(req.Slug)
	if finalSlug == "" {
		finalSlug = slug.Make(req.Name) // Generate slug if not provided
	} else {
		finalSlug = slug.Make(finalSlug) // Ensure provided slug is clean
	}

	st := &AppointmentStatus{
		Name:        strings.TrimSpace(req.Name),
		Slug:        finalSlug,
		Description: req.Description,
	}

	if err := s.repo.Create(ctx, st); err != nil {
		s.logger.Error("Failed to create appointment status", zap.Error(err), zap.String("name", req.Name))
		return nil, err // Repo already returns specific common.APIError
	}
	s.logger.Info("Appointment status created successfully",
		zap.String("id", st.ID.String()), zap.String("name", st.Name))
	return st, nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*AppointmentStatus, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err // ErrNotFound or other DB error
	}

	st.Name = strings.TrimSpace(req.Name)
	if req.Slug != "" {
		st.Slug = slug.Make(req.Slug)
	} else {
		st.Slug = slug.Make(req.Name) // Regenerate slug from the new name when omitted
	}
	st.Description = req.Description

	if err := s.repo.Update(ctx, st); err != nil {
		s.logger.Error("Failed to update appointment status", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Appointment status updated successfully", zap.String("id", st.ID.String()))
	return st, nil
}

func (s *service) AdminDeleteStatus(ctx context.Context, id uuid.UUID) error {
	// Repository SoftDelete refuses when appointments still reference the status.
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete appointment status", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("Appointment status deleted successfully", zap.String("id", id.String()))
	return nil
}

func (s *service) AdminRestoreStatus(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	st, err := s.repo.Restore(ctx, id)
	if err != nil {
		s.logger.Error("Failed to restore appointment status", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Appointment status restored successfully", zap.String("id", st.ID.String()))
	return st, nil
}

func (s *service) AdminGetAllStatusesIncludingDeleted(ctx context.Context) ([]AppointmentStatus, error) {
	statuses, err := s.repo.FindAllIncludingDeleted(ctx)
	if err != nil {
		s.logger.Error("Failed to list appointment statuses including deleted", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve appointment statuses.")
	}
	return statuses, nil
}

// --- Public Methods ---

func (s *service) GetStatusByID(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		// Repo returns common.ErrNotFound if not found
		return nil, err
	}
	return st, nil
}

func (s *service) GetStatusBySlug(ctx context.Context, slugToFind string) (*AppointmentStatus, error) {
	st, err := s.repo.FindBySlug(ctx, slugToFind)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) GetAllStatuses(ctx context.Context, query ListStatusesQuery) ([]AppointmentStatus, error) {
	statuses, err := s.repo.FindAll(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list appointment statuses", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve appointment statuses.")
	}
	return statuses, nil
}
