// File: internal/middleware/auth_test.go
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/auth"
	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
	"clinic_backend/internal/shared"
)

type middlewareTestSuite struct {
	tokens    shared.TokenService
	blocklist shared.TokenBlocklist
	router    *gin.Engine
}

func setupAuthMiddlewareTestSuite(t *testing.T) *middlewareTestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:       "middleware-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	logger := zap.NewNop()
	tokens := auth.NewJWTService(cfg, logger)
	blocklist := auth.NewInMemoryBlocklistService(logger)

	router := gin.New()
	router.GET("/protected", AuthMiddleware(tokens, blocklist, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": common.GetUserIDFromContext(c).String(),
			"role":    common.GetUserRoleFromContext(c),
			"jti":     common.GetTokenJTIFromContext(c),
		})
	})

	return &middlewareTestSuite{tokens: tokens, blocklist: blocklist, router: router}
}

func testTokenUser() *shared.User {
	return &shared.User{
		ID:    uuid.New(),
		Email: "ana.quispe@clinic.pe",
		Role:  "terapeuta",
	}
}

func doProtected(ts *middlewareTestSuite, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_AllowsValidAccessToken(t *testing.T) {
	ts := setupAuthMiddlewareTestSuite(t)
	tokenUser := testTokenUser()

	accessToken, _, err := ts.tokens.GenerateAccessToken(tokenUser)
	require.NoError(t, err)

	w := doProtected(ts, "Bearer "+accessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tokenUser.ID.String())
	assert.Contains(t, w.Body.String(), "terapeuta")
}

func TestAuthMiddleware_RejectsRefreshTokenAsAccess(t *testing.T) {
	ts := setupAuthMiddlewareTestSuite(t)

	refreshToken, _, err := ts.tokens.GenerateRefreshToken(testTokenUser())
	require.NoError(t, err)

	w := doProtected(ts, "Bearer "+refreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "access tokens")
}

func TestAuthMiddleware_RejectsRevokedToken(t *testing.T) {
	ts := setupAuthMiddlewareTestSuite(t)

	accessToken, expiresAt, err := ts.tokens.GenerateAccessToken(testTokenUser())
	require.NoError(t, err)
	claims, err := ts.tokens.ValidateToken(accessToken)
	require.NoError(t, err)

	// Works before revocation, rejected after.
	assert.Equal(t, http.StatusOK, doProtected(ts, "Bearer "+accessToken).Code)

	require.NoError(t, ts.blocklist.AddToBlocklist(context.Background(), claims.ID, expiresAt))
	w := doProtected(ts, "Bearer "+accessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	ts := setupAuthMiddlewareTestSuite(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doProtected(ts, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

// --- Role and permission guards ---

type stubPermissionChecker struct {
	allowed map[string]bool
	err     error
}

func (s *stubPermissionChecker) HasPermission(_ context.Context, roleName, permissionName string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[roleName+":"+permissionName], nil
}

func setupGuardRouter(t *testing.T, checker PermissionChecker) (*gin.Engine, shared.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:       "middleware-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	logger := zap.NewNop()
	tokens := auth.NewJWTService(cfg, logger)
	blocklist := auth.NewInMemoryBlocklistService(logger)
	authMW := AuthMiddleware(tokens, blocklist, logger)
	perm := RequirePermission(checker, logger)

	router := gin.New()
	router.GET("/admin-only", authMW, RequireRoles(logger, "admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/patients", authMW, perm("patients.read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, tokens
}

func TestRequireRoles(t *testing.T) {
	router, tokens := setupGuardRouter(t, &stubPermissionChecker{})

	adminToken, _, err := tokens.GenerateAccessToken(&shared.User{ID: uuid.New(), Email: "admin@clinic.pe", Role: "admin"})
	require.NoError(t, err)
	staffToken, _, err := tokens.GenerateAccessToken(&shared.User{ID: uuid.New(), Email: "maria.lopez@clinic.pe", Role: "recepcionista"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermission(t *testing.T) {
	checker := &stubPermissionChecker{allowed: map[string]bool{
		"recepcionista:patients.read": true,
	}}
	router, tokens := setupGuardRouter(t, checker)

	receptionToken, _, err := tokens.GenerateAccessToken(&shared.User{ID: uuid.New(), Email: "maria.lopez@clinic.pe", Role: "recepcionista"})
	require.NoError(t, err)
	therapistToken, _, err := tokens.GenerateAccessToken(&shared.User{ID: uuid.New(), Email: "ana.quispe@clinic.pe", Role: "terapeuta"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+receptionToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+therapistToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
