// File: internal/therapist/service.go
package therapist

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Service defines the interface for therapist business logic.
type Service interface {
	CreateTherapist(ctx context.Context, req CreateTherapistRequest) (*Therapist, error)
	GetTherapistByID(ctx context.Context, id uuid.UUID) (*Therapist, error)
	ListTherapists(ctx context.Context, query ListTherapistsQuery) ([]Therapist, int64, error)
	UpdateTherapist(ctx context.Context, id uuid.UUID, req UpdateTherapistRequest) (*Therapist, error)
	DeleteTherapist(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new therapist service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func normalizeSpecialties(values []string) pq.StringArray {
	specialties := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			specialties = append(specialties, trimmed)
		}
	}
	return specialties
}

func (s *service) CreateTherapist(ctx context.Context, req CreateTherapistRequest) (*Therapist, error) {
	t := &Therapist{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		Email:          req.Email,
		Phone:          req.Phone,
		LicenseNumber:  req.LicenseNumber,
		Specialties:    normalizeSpecialties(req.Specialties),
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("Failed to create therapist", zap.Error(err),
			zap.String("documentNumber", req.DocumentNumber))
		return nil, err
	}
	s.logger.Info("Therapist created successfully",
		zap.String("id", t.ID.String()), zap.String("documentNumber", t.DocumentNumber))
	return t, nil
}

func (s *service) GetTherapistByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListTherapists(ctx context.Context, query ListTherapistsQuery) ([]Therapist, int64, error) {
	therapists, total, err := s.repo.FindAll(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list therapists", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve therapists.")
	}
	return therapists, total, nil
}

func (s *service) UpdateTherapist(ctx context.Context, id uuid.UUID, req UpdateTherapistRequest) (*Therapist, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		t.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		t.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DocumentNumber != nil {
		t.DocumentNumber = strings.TrimSpace(*req.DocumentNumber)
	}
	if req.Email != nil {
		t.Email = req.Email
	}
	if req.Phone != nil {
		t.Phone = req.Phone
	}
	if req.LicenseNumber != nil {
		t.LicenseNumber = req.LicenseNumber
	}
	if req.Specialties != nil {
		t.Specialties = normalizeSpecialties(*req.Specialties)
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, t); err != nil {
		s.logger.Error("Failed to update therapist", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Therapist updated successfully", zap.String("id", t.ID.String()))
	return t, nil
}

func (s *service) DeleteTherapist(ctx context.Context, id uuid.UUID) error {
	// Repository SoftDelete refuses when appointments still reference the therapist.
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete therapist", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("Therapist deleted successfully", zap.String("id", id.String()))
	return nil
}
