// File: internal/status/handler.go
package status

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for appointment status handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new appointment status handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for appointment status operations.
// Reads require authentication; writes additionally require the admin role.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	statusGroup := router.Group("/appointment-statuses")
	statusGroup.Use(authMW)
	{
		statusGroup.GET("", h.getAllStatuses)
		statusGroup.GET("/:idOrSlug", h.getStatus)

		adminStatusGroup := statusGroup.Group("")
		adminStatusGroup.Use(adminRoleMW)
		{
			adminStatusGroup.GET("/all", h.adminGetAllIncludingDeleted)
			adminStatusGroup.POST("", h.adminCreateStatus)
			adminStatusGroup.PUT("/:id", h.adminUpdateStatus)
			adminStatusGroup.DELETE("/:id", h.adminDeleteStatus)
			adminStatusGroup.POST("/:id/restore", h.adminRestoreStatus)
		}
	}
}

func (h *Handler) getAllStatuses(c *gin.Context) {
	var query ListStatusesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	statuses, err := h.service.GetAllStatuses(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	statusResponses := make([]StatusResponse, len(statuses))
	for i, st := range statuses {
		statusResponses[i] = ToStatusResponse(&st)
	}
	common.RespondOK(c, "Appointment statuses retrieved successfully.", statusResponses)
}

func (h *Handler) getStatus(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")
	var stModel *AppointmentStatus
	var err error
	statusID, parseErr := uuid.Parse(idOrSlug)
	if parseErr == nil {
		stModel, err = h.service.GetStatusByID(c.Request.Context(), statusID)
	} else {
		stModel, err = h.service.GetStatusBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment status retrieved successfully.", ToStatusResponse(stModel))
}

func (h *Handler) adminGetAllIncludingDeleted(c *gin.Context) {
	statuses, err := h.service.AdminGetAllStatusesIncludingDeleted(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	statusResponses := make([]StatusResponse, len(statuses))
	for i, st := range statuses {
		statusResponses[i] = ToStatusResponse(&st)
	}
	common.RespondOK(c, "Appointment statuses retrieved successfully.", statusResponses)
}

func (h *Handler) adminCreateStatus(c *gin.Context) {
	var req CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin create status: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	stModel, err := h.service.AdminCreateStatus(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Appointment status created successfully.", ToStatusResponse(stModel))
}

func (h *Handler) adminUpdateStatus(c *gin.Context) {
	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid status ID format."))
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin update status: Invalid request body", zap.Error(err), zap.String("statusID", statusID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	stModel, err := h.service.AdminUpdateStatus(c.Request.Context(), statusID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment status updated successfully.", ToStatusResponse(stModel))
}

func (h *Handler) adminDeleteStatus(c *gin.Context) {
	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid status ID format."))
		return
	}
	if err := h.service.AdminDeleteStatus(c.Request.Context(), statusID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) adminRestoreStatus(c *gin.Context) {
	statusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid status ID format."))
		return
	}
	stModel, err := h.service.AdminRestoreStatus(c.Request.Context(), statusID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment status restored successfully.", ToStatusResponse(stModel))
}
