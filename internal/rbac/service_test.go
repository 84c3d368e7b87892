// File: internal/rbac/service_test.go
package rbac

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
	"clinic_backend/internal/config"
)

type MockRBACRepository struct {
	mock.Mock
}

func (m *MockRBACRepository) CreateRole(ctx context.Context, role *Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRBACRepository) FindRoleByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *MockRBACRepository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *MockRBACRepository) FindAllRoles(ctx context.Context) ([]Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Role), args.Error(1)
}

func (m *MockRBACRepository) UpdateRole(ctx context.Context, role *Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRBACRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRBACRepository) CreatePermission(ctx context.Context, permission *Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockRBACRepository) FindPermissionByID(ctx context.Context, id uuid.UUID) (*Permission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Permission), args.Error(1)
}

func (m *MockRBACRepository) FindPermissionByName(ctx context.Context, name string) (*Permission, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Permission), args.Error(1)
}

func (m *MockRBACRepository) FindAllPermissions(ctx context.Context) ([]Permission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Permission), args.Error(1)
}

func (m *MockRBACRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRBACRepository) AssignPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	args := m.Called(ctx, roleID, permissionID)
	return args.Error(0)
}

func (m *MockRBACRepository) RevokePermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	args := m.Called(ctx, roleID, permissionID)
	return args.Error(0)
}

func (m *MockRBACRepository) FindPermissionsForRole(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Permission), args.Error(1)
}

func (m *MockRBACRepository) FindPermissionNamesForRoleName(ctx context.Context, roleName string) ([]string, error) {
	args := m.Called(ctx, roleName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type rbacServiceTestSuite struct {
	service  Service
	mockRepo *MockRBACRepository
}

func setupRBACServiceTestSuite(t *testing.T) *rbacServiceTestSuite {
	t.Helper()
	mockRepo := new(MockRBACRepository)
	cfg := &config.Config{PermissionCacheTTL: time.Minute}
	// nil redis client: the in-process cache path is exercised.
	svc := NewService(mockRepo, nil, cfg, zap.NewNop())
	return &rbacServiceTestSuite{
		service:  svc,
		mockRepo: mockRepo,
	}
}

func TestHasPermission_AdminBypass(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)

	ok, err := ts.service.HasPermission(context.Background(), RoleAdmin, "appointments.delete")
	require.NoError(t, err)
	assert.True(t, ok)
	ts.mockRepo.AssertNotCalled(t, "FindPermissionNamesForRoleName", mock.Anything, mock.Anything)
}

func TestHasPermission_CachesRoleLookups(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)
	ctx := context.Background()

	// The repository is hit once; the second check answers from cache.
	ts.mockRepo.On("FindPermissionNamesForRoleName", ctx, "recepcionista").
		Return([]string{"appointments.read", "patients.read"}, nil).Once()

	ok, err := ts.service.HasPermission(ctx, "recepcionista", "patients.read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.service.HasPermission(ctx, "recepcionista", "appointments.read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ts.service.HasPermission(ctx, "recepcionista", "patients.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ts.mockRepo.AssertExpectations(t)
	ts.mockRepo.AssertNumberOfCalls(t, "FindPermissionNamesForRoleName", 1)
}

func TestHasPermission_EmptyRoleDenied(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)

	ok, err := ts.service.HasPermission(context.Background(), "", "patients.read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignPermissionToRole_InvalidatesCache(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)
	ctx := context.Background()
	roleID := uuid.New()
	permissionID := uuid.New()

	role := &Role{Name: "terapeuta"}
	role.ID = roleID
	permission := &Permission{Name: "histories.read"}
	permission.ID = permissionID

	// Warm the cache with an empty permission set.
	ts.mockRepo.On("FindPermissionNamesForRoleName", ctx, "terapeuta").
		Return([]string{}, nil).Once()
	ok, err := ts.service.HasPermission(ctx, "terapeuta", "histories.read")
	require.NoError(t, err)
	assert.False(t, ok)

	ts.mockRepo.On("FindRoleByID", ctx, roleID).Return(role, nil).Once()
	ts.mockRepo.On("FindPermissionByID", ctx, permissionID).Return(permission, nil).Once()
	ts.mockRepo.On("AssignPermission", ctx, roleID, permissionID).Return(nil).Once()
	require.NoError(t, ts.service.AssignPermissionToRole(ctx, roleID, permissionID))

	// The cache was invalidated, so the repository is consulted again.
	ts.mockRepo.On("FindPermissionNamesForRoleName", ctx, "terapeuta").
		Return([]string{"histories.read"}, nil).Once()
	ok, err = ts.service.HasPermission(ctx, "terapeuta", "histories.read")
	require.NoError(t, err)
	assert.True(t, ok)

	ts.mockRepo.AssertExpectations(t)
}

func TestAssignPermissionToRole_UnknownRole(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)
	ctx := context.Background()
	roleID := uuid.New()
	permissionID := uuid.New()

	ts.mockRepo.On("FindRoleByID", ctx, roleID).
		Return(nil, common.ErrNotFound.WithDetails("Role not found.")).Once()

	err := ts.service.AssignPermissionToRole(ctx, roleID, permissionID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "AssignPermission", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteRole_BlockedByAssignedUsers(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)
	ctx := context.Background()
	roleID := uuid.New()

	role := &Role{Name: "recepcionista"}
	role.ID = roleID

	conflict := common.ErrConflict.WithDetails("Cannot delete role: 2 users are still assigned to it.")
	ts.mockRepo.On("FindRoleByID", ctx, roleID).Return(role, nil).Once()
	ts.mockRepo.On("DeleteRole", ctx, roleID).Return(conflict).Once()

	err := ts.service.DeleteRole(ctx, roleID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}

func TestCreateRole_Conflict(t *testing.T) {
	ts := setupRBACServiceTestSuite(t)
	ctx := context.Background()

	conflict := common.ErrConflict.WithDetails("A role with this name already exists.")
	ts.mockRepo.On("CreateRole", ctx, mock.AnythingOfType("*rbac.Role")).Return(conflict).Once()

	_, err := ts.service.CreateRole(ctx, CreateRoleRequest{Name: "admin"})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	ts.mockRepo.AssertExpectations(t)
}
