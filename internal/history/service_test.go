// File: internal/history/service_test.go
package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/patient"
	"clinic_backend/internal/therapist"
)

// --- Mock Repositories ---

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, h *History) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByID(ctx context.Context, id uuid.UUID, preloadAssociations bool) (*History, error) {
	args := m.Called(ctx, id, preloadAssociations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*History), args.Error(1)
}

func (m *MockHistoryRepository) Update(ctx context.Context, h *History) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindAll(ctx context.Context, criteria Criteria) ([]History, int64, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]History), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistoryRepository) CreateDIUType(ctx context.Context, dt *DIUType) error {
	args := m.Called(ctx, dt)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindDIUTypeByID(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DIUType), args.Error(1)
}

func (m *MockHistoryRepository) FindDIUTypeBySlug(ctx context.Context, slug string) (*DIUType, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DIUType), args.Error(1)
}

func (m *MockHistoryRepository) FindAllDIUTypes(ctx context.Context, query ListDIUTypesQuery) ([]DIUType, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DIUType), args.Error(1)
}

func (m *MockHistoryRepository) FindAllDIUTypesIncludingDeleted(ctx context.Context) ([]DIUType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DIUType), args.Error(1)
}

func (m *MockHistoryRepository) UpdateDIUType(ctx context.Context, dt *DIUType) error {
	args := m.Called(ctx, dt)
	return args.Error(0)
}

func (m *MockHistoryRepository) SoftDeleteDIUType(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryRepository) RestoreDIUType(ctx context.Context, id uuid.UUID) (*DIUType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DIUType), args.Error(1)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*patient.Patient, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindAll(ctx context.Context, query patient.ListPatientsQuery) ([]patient.Patient, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]patient.Patient), args.Get(1).(int64), args.Error(2)
}

func (m *MockPatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTherapistRepository struct {
	mock.Mock
}

func (m *MockTherapistRepository) Create(ctx context.Context, th *therapist.Therapist) error {
	args := m.Called(ctx, th)
	return args.Error(0)
}

func (m *MockTherapistRepository) FindByID(ctx context.Context, id uuid.UUID) (*therapist.Therapist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*therapist.Therapist), args.Error(1)
}

func (m *MockTherapistRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*therapist.Therapist, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*therapist.Therapist), args.Error(1)
}

func (m *MockTherapistRepository) FindAll(ctx context.Context, query therapist.ListTherapistsQuery) ([]therapist.Therapist, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]therapist.Therapist), args.Get(1).(int64), args.Error(2)
}

func (m *MockTherapistRepository) Update(ctx context.Context, th *therapist.Therapist) error {
	args := m.Called(ctx, th)
	return args.Error(0)
}

func (m *MockTherapistRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Setup ---

type historyServiceTestSuite struct {
	service           Service
	mockRepo          *MockHistoryRepository
	mockPatientRepo   *MockPatientRepository
	mockTherapistRepo *MockTherapistRepository
}

func setupHistoryServiceTestSuite(t *testing.T) *historyServiceTestSuite {
	t.Helper()
	mockRepo := new(MockHistoryRepository)
	mockPatientRepo := new(MockPatientRepository)
	mockTherapistRepo := new(MockTherapistRepository)
	svc := NewService(mockRepo, mockPatientRepo, mockTherapistRepo, zap.NewNop())
	return &historyServiceTestSuite{
		service:           svc,
		mockRepo:          mockRepo,
		mockPatientRepo:   mockPatientRepo,
		mockTherapistRepo: mockTherapistRepo,
	}
}

func testHistoryPatient() *patient.Patient {
	p := &patient.Patient{FirstName: "Rosa", LastName: "Huaman", DocumentNumber: "41223344"}
	p.ID = uuid.New()
	return p
}

func testDIUType(name string) *DIUType {
	dt := &DIUType{Name: name, Slug: name}
	dt.ID = uuid.New()
	return dt
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := time.Parse(DateLayout, value)
	require.NoError(t, err)
	return day
}

// --- History tests ---

func TestCreateHistory_ValidatesPatient(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	patientID := uuid.New()

	ts.mockPatientRepo.On("FindByID", ctx, patientID).
		Return(nil, common.ErrNotFound.WithDetails("Patient not found.")).Once()

	_, err := ts.service.CreateHistory(ctx, CreateHistoryRequest{
		PatientID: patientID,
		VisitDate: "2026-05-10",
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	assert.Equal(t, "The specified patient does not exist.", apiErr.Details)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateHistory_ValidatesDIUType(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	p := testHistoryPatient()
	diuTypeID := uuid.New()

	ts.mockPatientRepo.On("FindByID", ctx, p.ID).Return(p, nil).Once()
	ts.mockRepo.On("FindDIUTypeByID", ctx, diuTypeID).
		Return(nil, common.ErrNotFound.WithDetails("DIU type not found.")).Once()

	_, err := ts.service.CreateHistory(ctx, CreateHistoryRequest{
		PatientID: p.ID,
		VisitDate: "2026-05-10",
		DIUTypeID: &diuTypeID,
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	assert.Equal(t, "The specified DIU type does not exist.", apiErr.Details)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateHistory_ReloadsWithAssociations(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	p := testHistoryPatient()
	notes := "Control postparto sin complicaciones."

	ts.mockPatientRepo.On("FindByID", ctx, p.ID).Return(p, nil).Once()

	var createdID uuid.UUID
	ts.mockRepo.On("Create", ctx, mock.MatchedBy(func(h *History) bool {
		return h.PatientID == p.ID &&
			h.VisitDate.Equal(mustDay(t, "2026-05-10")) &&
			h.PrivateNotes != nil && *h.PrivateNotes == notes
	})).Run(func(args mock.Arguments) {
		h := args.Get(1).(*History)
		h.ID = uuid.New()
		createdID = h.ID
	}).Return(nil).Once()

	preloaded := &History{PatientID: p.ID, VisitDate: mustDay(t, "2026-05-10"), Patient: *p}
	ts.mockRepo.On("FindByID", ctx, mock.MatchedBy(func(id uuid.UUID) bool {
		return id == createdID
	}), true).Run(func(args mock.Arguments) {
		preloaded.ID = args.Get(1).(uuid.UUID)
	}).Return(preloaded, nil).Once()

	created, err := ts.service.CreateHistory(ctx, CreateHistoryRequest{
		PatientID:    p.ID,
		VisitDate:    "2026-05-10",
		PrivateNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, createdID, created.ID)
	assert.Equal(t, p.ID, created.Patient.ID)
	ts.mockRepo.AssertExpectations(t)
	ts.mockPatientRepo.AssertExpectations(t)
}

func TestUpdateHistory_ValidatesChangedTherapist(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	historyID := uuid.New()
	therapistID := uuid.New()

	existing := &History{PatientID: uuid.New(), VisitDate: mustDay(t, "2026-05-10")}
	existing.ID = historyID

	ts.mockRepo.On("FindByID", ctx, historyID, false).Return(existing, nil).Once()
	ts.mockTherapistRepo.On("FindByID", ctx, therapistID).
		Return(nil, common.ErrNotFound.WithDetails("Therapist not found.")).Once()

	_, err := ts.service.UpdateHistory(ctx, historyID, UpdateHistoryRequest{TherapistID: &therapistID})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	assert.Equal(t, "The specified therapist does not exist.", apiErr.Details)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateHistory_SkipsFKChecksWhenUnchanged(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	historyID := uuid.New()
	notes := "Paciente refiere mejoría."

	existing := &History{PatientID: uuid.New(), VisitDate: mustDay(t, "2026-05-10")}
	existing.ID = historyID

	ts.mockRepo.On("FindByID", ctx, historyID, false).Return(existing, nil).Once()
	ts.mockRepo.On("Update", ctx, mock.MatchedBy(func(h *History) bool {
		return h.ID == historyID && h.PrivateNotes != nil && *h.PrivateNotes == notes
	})).Return(nil).Once()
	ts.mockRepo.On("FindByID", ctx, historyID, true).Return(existing, nil).Once()

	_, err := ts.service.UpdateHistory(ctx, historyID, UpdateHistoryRequest{PrivateNotes: &notes})
	require.NoError(t, err)
	ts.mockTherapistRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	ts.mockRepo.AssertNotCalled(t, "FindDIUTypeByID", mock.Anything, mock.Anything)
	ts.mockRepo.AssertExpectations(t)
}

func TestListHistories_InvalidPatientFilter(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()

	_, _, err := ts.service.ListHistories(ctx, ListHistoriesQuery{PatientID: "not-a-uuid"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	assert.Equal(t, "Invalid patient_id format.", apiErr.Details)
	ts.mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestListHistories_EndDateWindowIsInclusive(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindAll", ctx, mock.MatchedBy(func(criteria Criteria) bool {
		return criteria.DateBefore != nil &&
			criteria.DateBefore.Equal(mustDay(t, "2026-05-11")) &&
			criteria.DateFrom != nil &&
			criteria.DateFrom.Equal(mustDay(t, "2026-05-01"))
	})).Return([]History{}, int64(0), nil).Once()

	_, _, err := ts.service.ListHistories(ctx, ListHistoriesQuery{
		StartDate: "2026-05-01",
		EndDate:   "2026-05-10",
	})
	require.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestListPatientHistories_UnknownPatient(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	patientID := uuid.New()

	ts.mockPatientRepo.On("FindByID", ctx, patientID).
		Return(nil, common.ErrNotFound.WithDetails("Patient not found.")).Once()

	_, _, err := ts.service.ListPatientHistories(ctx, patientID, common.PaginationQuery{Page: 1, PageSize: 10})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestListPatientHistories_ScopesCriteriaToPatient(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	p := testHistoryPatient()

	entry := History{PatientID: p.ID, VisitDate: mustDay(t, "2026-05-10")}
	entry.ID = uuid.New()

	ts.mockPatientRepo.On("FindByID", ctx, p.ID).Return(p, nil).Once()
	ts.mockRepo.On("FindAll", ctx, mock.MatchedBy(func(criteria Criteria) bool {
		return criteria.PatientID != nil && *criteria.PatientID == p.ID
	})).Return([]History{entry}, int64(1), nil).Once()

	histories, total, err := ts.service.ListPatientHistories(ctx, p.ID, common.PaginationQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, histories, 1)
	assert.Equal(t, entry.ID, histories[0].ID)
	ts.mockRepo.AssertExpectations(t)
}

// --- DIU type tests ---

func TestAdminCreateDIUType_GeneratesSlugFromName(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("CreateDIUType", ctx, mock.MatchedBy(func(dt *DIUType) bool {
		return dt.Name == "T de Cobre" && dt.Slug == "t-de-cobre"
	})).Return(nil).Once()

	created, err := ts.service.AdminCreateDIUType(ctx, CreateDIUTypeRequest{Name: "T de Cobre"})
	require.NoError(t, err)
	assert.Equal(t, "t-de-cobre", created.Slug)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminDeleteDIUType_BlockedByHistories(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()
	diuTypeID := uuid.New()

	conflict := common.ErrConflict.WithDetails("Cannot delete DIU type: 2 histories are still associated with it.")
	ts.mockRepo.On("SoftDeleteDIUType", ctx, diuTypeID).Return(conflict).Once()

	err := ts.service.AdminDeleteDIUType(ctx, diuTypeID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestAdminRestoreDIUType_Success(t *testing.T) {
	ts := setupHistoryServiceTestSuite(t)
	ctx := context.Background()

	restored := testDIUType("hormonal")
	ts.mockRepo.On("RestoreDIUType", ctx, restored.ID).Return(restored, nil).Once()

	dt, err := ts.service.AdminRestoreDIUType(ctx, restored.ID)
	require.NoError(t, err)
	assert.Equal(t, restored.ID, dt.ID)
	ts.mockRepo.AssertExpectations(t)
}
