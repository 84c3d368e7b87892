// File: internal/therapist/service_test.go
package therapist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

type MockTherapistRepository struct {
	mock.Mock
}

func (m *MockTherapistRepository) Create(ctx context.Context, t *Therapist) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTherapistRepository) FindByID(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Therapist), args.Error(1)
}

func (m *MockTherapistRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*Therapist, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Therapist), args.Error(1)
}

func (m *MockTherapistRepository) FindAll(ctx context.Context, query ListTherapistsQuery) ([]Therapist, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]Therapist), args.Get(1).(int64), args.Error(2)
}

func (m *MockTherapistRepository) Update(ctx context.Context, t *Therapist) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTherapistRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type therapistServiceTestSuite struct {
	service  Service
	mockRepo *MockTherapistRepository
}

func setupTherapistServiceTestSuite(t *testing.T) *therapistServiceTestSuite {
	t.Helper()
	mockRepo := new(MockTherapistRepository)
	svc := NewService(mockRepo, zap.NewNop())
	return &therapistServiceTestSuite{
		service:  svc,
		mockRepo: mockRepo,
	}
}

func TestCreateTherapist_NormalizesSpecialtiesAndActivates(t *testing.T) {
	ts := setupTherapistServiceTestSuite(t)
	ctx := context.Background()

	req := CreateTherapistRequest{
		FirstName:      "Ana",
		LastName:       "Quispe",
		DocumentNumber: "71234567",
		Specialties:    []string{" Terapia Física ", "", "Rehabilitación"},
	}

	ts.mockRepo.On("Create", ctx, mock.MatchedBy(func(th *Therapist) bool {
		return th.IsActive &&
			len(th.Specialties) == 2 &&
			th.Specialties[0] == "Terapia Física" &&
			th.Specialties[1] == "Rehabilitación"
	})).Return(nil).Once()

	created, err := ts.service.CreateTherapist(ctx, req)
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Len(t, created.Specialties, 2)
	ts.mockRepo.AssertExpectations(t)
}

func TestCreateTherapist_DuplicateDocument(t *testing.T) {
	ts := setupTherapistServiceTestSuite(t)
	ctx := context.Background()

	conflict := common.ErrConflict.WithDetails("A therapist with this document number already exists.")
	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*therapist.Therapist")).Return(conflict).Once()

	_, err := ts.service.CreateTherapist(ctx, CreateTherapistRequest{
		FirstName:      "Ana",
		LastName:       "Quispe",
		DocumentNumber: "71234567",
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestUpdateTherapist_DeactivatesWithoutTouchingOtherFields(t *testing.T) {
	ts := setupTherapistServiceTestSuite(t)
	ctx := context.Background()
	therapistID := uuid.New()

	existing := &Therapist{
		FirstName:      "Ana",
		LastName:       "Quispe",
		DocumentNumber: "71234567",
		IsActive:       true,
	}
	existing.ID = therapistID

	inactive := false
	ts.mockRepo.On("FindByID", ctx, therapistID).Return(existing, nil).Once()
	ts.mockRepo.On("Update", ctx, mock.MatchedBy(func(th *Therapist) bool {
		return !th.IsActive && th.FirstName == "Ana" && th.DocumentNumber == "71234567"
	})).Return(nil).Once()

	updated, err := ts.service.UpdateTherapist(ctx, therapistID, UpdateTherapistRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	ts.mockRepo.AssertExpectations(t)
}

func TestUpdateTherapist_ReplacesSpecialties(t *testing.T) {
	ts := setupTherapistServiceTestSuite(t)
	ctx := context.Background()
	therapistID := uuid.New()

	existing := &Therapist{
		FirstName:      "Ana",
		LastName:       "Quispe",
		DocumentNumber: "71234567",
		Specialties:    []string{"Terapia Física"},
		IsActive:       true,
	}
	existing.ID = therapistID

	newSpecialties := []string{"Acupuntura"}
	ts.mockRepo.On("FindByID", ctx, therapistID).Return(existing, nil).Once()
	ts.mockRepo.On("Update", ctx, mock.MatchedBy(func(th *Therapist) bool {
		return len(th.Specialties) == 1 && th.Specialties[0] == "Acupuntura"
	})).Return(nil).Once()

	updated, err := ts.service.UpdateTherapist(ctx, therapistID, UpdateTherapistRequest{Specialties: &newSpecialties})
	require.NoError(t, err)
	assert.Equal(t, "Acupuntura", updated.Specialties[0])
	ts.mockRepo.AssertExpectations(t)
}

func TestDeleteTherapist_BlockedByAppointments(t *testing.T) {
	ts := setupTherapistServiceTestSuite(t)
	ctx := context.Background()
	therapistID := uuid.New()

	conflict := common.ErrConflict.WithDetails("Cannot delete therapist: 4 appointments are still associated with them.")
	ts.mockRepo.On("SoftDelete", ctx, therapistID).Return(conflict).Once()

	err := ts.service.DeleteTherapist(ctx, therapistID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}
