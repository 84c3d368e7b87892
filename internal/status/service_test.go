// File: internal/status/service_test.go
package status

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

// --- Mock Repository ---

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) Create(ctx context.Context, st *AppointmentStatus) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStatusRepository) FindByID(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AppointmentStatus), args.Error(1)
}

func (m *MockStatusRepository) FindBySlug(ctx context.Context, slug string) (*AppointmentStatus, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AppointmentStatus), args.Error(1)
}

func (m *MockStatusRepository) FindByName(ctx context.Context, name string) (*AppointmentStatus, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AppointmentStatus), args.Error(1)
}

func (m *MockStatusRepository) FindAll(ctx context.Context, query ListStatusesQuery) ([]AppointmentStatus, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AppointmentStatus), args.Error(1)
}

func (m *MockStatusRepository) FindAllIncludingDeleted(ctx context.Context) ([]AppointmentStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AppointmentStatus), args.Error(1)
}

func (m *MockStatusRepository) Update(ctx context.Context, st *AppointmentStatus) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStatusRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStatusRepository) Restore(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AppointmentStatus), args.Error(1)
}

// --- Test Setup ---

type statusServiceTestSuite struct {
	service  Service
	mockRepo *MockStatusRepository
}

func setupStatusServiceTestSuite(t *testing.T) *statusServiceTestSuite {
	t.Helper()
	mockRepo := new(MockStatusRepository)
	svc := NewService(mockRepo, zap.NewNop())
	return &statusServiceTestSuite{
		service:  svc,
		mockRepo: mockRepo,
	}
}

// --- Tests ---

func TestAdminCreateStatus_GeneratesSlugFromName(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()

	req := CreateStatusRequest{Name: "En Proceso"}

	ts.mockRepo.On("Create", ctx, mock.MatchedBy(func(st *AppointmentStatus) bool {
		return st.Name == "En Proceso" && st.Slug == "en-proceso"
	})).Return(nil).Once()

	created, err := ts.service.AdminCreateStatus(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "En Proceso", created.Name)
	assert.Equal(t, "en-proceso", created.Slug)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminCreateStatus_CleansProvidedSlug(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()

	req := CreateStatusRequest{Name: "Cancelado", Slug: "  Cancelado POR Paciente "}

	ts.mockRepo.On("Create", ctx, mock.MatchedBy(func(st *AppointmentStatus) bool {
		return st.Slug == "cancelado-por-paciente"
	})).Return(nil).Once()

	_, err := ts.service.AdminCreateStatus(ctx, req)
	require.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminCreateStatus_PropagatesConflict(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()

	conflict := common.ErrConflict.WithDetails("A status with this name or slug already exists.")
	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*status.AppointmentStatus")).
		Return(conflict).Once()

	_, err := ts.service.AdminCreateStatus(ctx, CreateStatusRequest{Name: "Pendiente"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminUpdateStatus_RegeneratesSlugWhenOmitted(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()
	statusID := uuid.New()

	existing := &AppointmentStatus{Name: "Pendiente", Slug: "pendiente"}
	existing.ID = statusID

	ts.mockRepo.On("FindByID", ctx, statusID).Return(existing, nil).Once()
	ts.mockRepo.On("Update", ctx, mock.MatchedBy(func(st *AppointmentStatus) bool {
		return st.Name == "Confirmado" && st.Slug == "confirmado"
	})).Return(nil).Once()

	updated, err := ts.service.AdminUpdateStatus(ctx, statusID, UpdateStatusRequest{Name: "Confirmado"})
	require.NoError(t, err)
	assert.Equal(t, "confirmado", updated.Slug)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminUpdateStatus_NotFound(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()
	statusID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, statusID).
		Return(nil, common.ErrNotFound.WithDetails("Appointment status not found.")).Once()

	_, err := ts.service.AdminUpdateStatus(ctx, statusID, UpdateStatusRequest{Name: "Confirmado"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminDeleteStatus_BlockedByAppointments(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()
	statusID := uuid.New()

	conflict := common.ErrConflict.WithDetails("Cannot delete status: 3 appointments are still associated with it.")
	ts.mockRepo.On("SoftDelete", ctx, statusID).Return(conflict).Once()

	err := ts.service.AdminDeleteStatus(ctx, statusID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminRestoreStatus_Success(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()
	statusID := uuid.New()

	restored := &AppointmentStatus{Name: "Cancelado", Slug: "cancelado"}
	restored.ID = statusID

	ts.mockRepo.On("Restore", ctx, statusID).Return(restored, nil).Once()

	st, err := ts.service.AdminRestoreStatus(ctx, statusID)
	require.NoError(t, err)
	assert.Equal(t, statusID, st.ID)
	ts.mockRepo.AssertExpectations(t)
}

func TestGetStatusBySlug_DelegatesToRepo(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()

	existing := &AppointmentStatus{Name: "Pendiente", Slug: "pendiente"}
	existing.ID = uuid.New()

	ts.mockRepo.On("FindBySlug", ctx, "pendiente").Return(existing, nil).Once()

	st, err := ts.service.GetStatusBySlug(ctx, "pendiente")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, st.ID)
	ts.mockRepo.AssertExpectations(t)
}

func TestGetAllStatuses_WrapsRepositoryError(t *testing.T) {
	ts := setupStatusServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindAll", ctx, mock.AnythingOfType("status.ListStatusesQuery")).
		Return(nil, assert.AnError).Once()

	_, err := ts.service.GetAllStatuses(ctx, ListStatusesQuery{})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrInternalServer.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}
