// File: internal/auth/service_test.go
package auth

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
	"clinic_backend/internal/rbac"
	"clinic_backend/internal/shared"
	"clinic_backend/internal/user"
)

// --- Mocks ---

type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetForLogin(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserProvider) RecordLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserProvider) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// --- Suite ---

type authServiceTestSuite struct {
	service   Service
	mockUsers *MockUserProvider
	tokens    shared.TokenService
	blocklist shared.TokenBlocklist
}

// The token service and blocklist are real implementations: signing,
// parsing and revocation are exactly what these tests are about.
func setupAuthServiceTestSuite(t *testing.T) *authServiceTestSuite {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       "unit-test-signing-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	logger := zap.NewNop()
	mockUsers := new(MockUserProvider)
	tokens := NewJWTService(cfg, logger)
	blocklist := NewInMemoryBlocklistService(logger)
	svc := NewService(mockUsers, tokens, blocklist, logger)
	return &authServiceTestSuite{
		service:   svc,
		mockUsers: mockUsers,
		tokens:    tokens,
		blocklist: blocklist,
	}
}

func activeReceptionist(t *testing.T, password string) *user.User {
	t.Helper()
	hash, err := common.HashPassword(password)
	require.NoError(t, err)

	role := rbac.Role{Name: "recepcionista"}
	role.ID = uuid.New()

	u := &user.User{
		Email:        "maria.lopez@clinic.pe",
		PasswordHash: hash,
		FirstName:    "Maria",
		LastName:     "Lopez",
		RoleID:       role.ID,
		IsActive:     true,
		Role:         role,
	}
	u.ID = uuid.New()
	return u
}

// --- Tests ---

func TestLogin_Success(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")

	ts.mockUsers.On("GetForLogin", ctx, "maria.lopez@clinic.pe").Return(dbUser, nil).Once()
	ts.mockUsers.On("RecordLogin", ctx, dbUser.ID).Return(nil).Once()

	loggedIn, tokens, err := ts.service.Login(ctx, LoginRequest{
		Email:    "maria.lopez@clinic.pe",
		Password: "clave-segura-123",
	})
	require.NoError(t, err)
	require.NotNil(t, loggedIn)
	require.NotNil(t, tokens)

	assert.Equal(t, dbUser.ID, loggedIn.ID)
	assert.Equal(t, "recepcionista", loggedIn.Role)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	claims, err := ts.tokens.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, shared.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, dbUser.ID, claims.UserID)
	assert.NotEmpty(t, claims.ID, "access tokens must carry a jti")

	ts.mockUsers.AssertExpectations(t)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")

	ts.mockUsers.On("GetForLogin", ctx, "nadie@clinic.pe").
		Return(nil, common.ErrNotFound.WithDetails("User not found.")).Once()
	ts.mockUsers.On("GetForLogin", ctx, "maria.lopez@clinic.pe").Return(dbUser, nil).Once()

	_, _, errUnknown := ts.service.Login(ctx, LoginRequest{Email: "nadie@clinic.pe", Password: "whatever"})
	_, _, errWrongPass := ts.service.Login(ctx, LoginRequest{Email: "maria.lopez@clinic.pe", Password: "not-the-password"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)

	apiErrUnknown, ok := common.IsAPIError(errUnknown)
	require.True(t, ok)
	apiErrWrongPass, ok := common.IsAPIError(errWrongPass)
	require.True(t, ok)

	// Identical status and details: responses must not reveal whether the
	// email exists.
	assert.Equal(t, common.ErrUnauthorized.Code, apiErrUnknown.Code)
	assert.Equal(t, apiErrUnknown.Code, apiErrWrongPass.Code)
	assert.Equal(t, apiErrUnknown.Details, apiErrWrongPass.Details)

	ts.mockUsers.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")
	dbUser.IsActive = false

	ts.mockUsers.On("GetForLogin", ctx, "maria.lopez@clinic.pe").Return(dbUser, nil).Once()

	_, _, err := ts.service.Login(ctx, LoginRequest{
		Email:    "maria.lopez@clinic.pe",
		Password: "clave-segura-123",
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	ts.mockUsers.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything)
}

func TestRefresh_RotatesPairAndRevokesOldToken(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")

	oldRefresh, _, err := ts.tokens.GenerateRefreshToken(dbUser)
	require.NoError(t, err)
	oldClaims, err := ts.tokens.ParseRefreshToken(oldRefresh)
	require.NoError(t, err)

	ts.mockUsers.On("GetUserByID", ctx, dbUser.ID).Return(dbUser, nil).Once()

	newTokens, err := ts.service.Refresh(ctx, oldRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newTokens.AccessToken)
	assert.NotEqual(t, oldRefresh, newTokens.RefreshToken)

	blocked, err := ts.blocklist.IsBlocklisted(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, blocked, "the rotated refresh token must be revoked")

	// Replaying the old refresh token is rejected before any user lookup.
	_, err = ts.service.Refresh(ctx, oldRefresh)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	ts.mockUsers.AssertNumberOfCalls(t, "GetUserByID", 1)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")

	accessToken, _, err := ts.tokens.GenerateAccessToken(dbUser)
	require.NoError(t, err)

	_, err = ts.service.Refresh(ctx, accessToken)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
	ts.mockUsers.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestRefresh_DeactivatedAccount(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")
	dbUser.IsActive = false

	refreshToken, _, err := ts.tokens.GenerateRefreshToken(dbUser)
	require.NoError(t, err)

	ts.mockUsers.On("GetUserByID", ctx, dbUser.ID).Return(dbUser, nil).Once()

	_, err = ts.service.Refresh(ctx, refreshToken)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUnauthorized.Code, apiErr.Code)
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	dbUser := activeReceptionist(t, "clave-segura-123")

	accessToken, expiresAt, err := ts.tokens.GenerateAccessToken(dbUser)
	require.NoError(t, err)
	claims, err := ts.tokens.ValidateToken(accessToken)
	require.NoError(t, err)

	require.NoError(t, ts.service.Logout(ctx, claims.ID, expiresAt))

	blocked, err := ts.blocklist.IsBlocklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	dbUser := activeReceptionist(t, "clave-segura-123")

	otherCfg := &config.Config{
		JWTSecret:       "a-different-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	foreignTokens := NewJWTService(otherCfg, zap.NewNop())
	forged, _, err := foreignTokens.GenerateAccessToken(dbUser)
	require.NoError(t, err)

	_, err = ts.tokens.ValidateToken(forged)
	assert.Error(t, err)
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockUsers.On("GetUserByID", ctx, userID).
		Return(nil, common.ErrNotFound.WithDetails("User not found.")).Once()

	_, err := ts.service.GetCurrentUser(ctx, userID)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}
