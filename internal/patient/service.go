// File: internal/patient/service.go
package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Service defines the interface for patient business logic.
type Service interface {
	CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, query ListPatientsQuery) ([]Patient, int64, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new patient service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func parseDateOnly(value string) (*time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid date format. Expected YYYY-MM-DD.")
	}
	return &parsed, nil
}

func (s *service) CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	p := &Patient{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Notes:          req.Notes,
	}
	if req.BirthDate != nil && *req.BirthDate != "" {
		birthDate, err := parseDateOnly(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		p.BirthDate = birthDate
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create patient", zap.Error(err),
			zap.String("documentNumber", req.DocumentNumber))
		return nil, err
	}
	s.logger.Info("Patient created successfully",
		zap.String("id", p.ID.String()), zap.String("documentNumber", p.DocumentNumber))
	return p, nil
}

func (s *service) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListPatients(ctx context.Context, query ListPatientsQuery) ([]Patient, int64, error) {
	patients, total, err := s.repo.FindAll(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list patients", zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not retrieve patients.")
	}
	return patients, total, nil
}

func (s *service) UpdatePatient(ctx context.Context, id uuid.UUID, req UpdatePatientRequest) (*Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DocumentNumber != nil {
		p.DocumentNumber = strings.TrimSpace(*req.DocumentNumber)
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			p.BirthDate = nil
		} else {
			birthDate, err := parseDateOnly(*req.BirthDate)
			if err != nil {
				return nil, err
			}
			p.BirthDate = birthDate
		}
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update patient", zap.Error(err), zap.String("id", id.String()))
		return nil, err
	}
	s.logger.Info("Patient updated successfully", zap.String("id", p.ID.String()))
	return p, nil
}

func (s *service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	// Repository SoftDelete refuses when appointments still reference the patient.
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete patient", zap.Error(err), zap.String("id", id.String()))
		return err
	}
	s.logger.Info("Patient deleted successfully", zap.String("id", id.String()))
	return nil
}
