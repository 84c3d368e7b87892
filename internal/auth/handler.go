// File: internal/auth/handler.go
package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/shared"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	authService Service
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(authService Service, logger *zap.Logger) *Handler {
	return &Handler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// Login and refresh are public; logout and /me require a valid token.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/logout", authMW, h.logout)
		authGroup.GET("/me", authMW, h.me)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	loggedInUser, tokenResponse, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	response := LoginResponse{
		User:  shared.ToUserResponse(loggedInUser),
		Token: *tokenResponse,
	}
	common.RespondOK(c, "Login successful.", response)
}

func (h *Handler) refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Refresh token: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	tokenResponse, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Token refreshed successfully.", tokenResponse)
}

func (h *Handler) logout(c *gin.Context) {
	jti := common.GetTokenJTIFromContext(c)
	expiresAt := common.GetTokenExpiresAtFromContext(c)
	if jti == "" || expiresAt.IsZero() {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No token in request context."))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), jti, expiresAt); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logged out successfully.", nil)
}

func (h *Handler) me(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No user in request context."))
		return
	}

	currentUser, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Current user retrieved successfully.", shared.ToUserResponse(currentUser))
}
