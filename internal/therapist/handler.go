// File: internal/therapist/handler.go
package therapist

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for therapist handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new therapist handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for therapist operations. Every route
// requires authentication plus the matching `therapists.*` permission.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, perm func(permission string) gin.HandlerFunc) {
	therapistGroup := router.Group("/therapists")
	therapistGroup.Use(authMW)
	{
		therapistGroup.GET("", perm("therapists.read"), h.listTherapists)
		therapistGroup.GET("/:id", perm("therapists.read"), h.getTherapist)
		therapistGroup.POST("", perm("therapists.create"), h.createTherapist)
		therapistGroup.PUT("/:id", perm("therapists.update"), h.updateTherapist)
		therapistGroup.DELETE("/:id", perm("therapists.delete"), h.deleteTherapist)
	}
}

func (h *Handler) listTherapists(c *gin.Context) {
	var query ListTherapistsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	therapists, total, err := h.service.ListTherapists(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	therapistResponses := make([]TherapistResponse, len(therapists))
	for i, t := range therapists {
		therapistResponses[i] = ToTherapistResponse(&t)
	}
	common.RespondPaginated(c, "Therapists retrieved successfully.", therapistResponses,
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) getTherapist(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid therapist ID format."))
		return
	}
	t, err := h.service.GetTherapistByID(c.Request.Context(), therapistID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Therapist retrieved successfully.", ToTherapistResponse(t))
}

func (h *Handler) createTherapist(c *gin.Context) {
	var req CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create therapist: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	t, err := h.service.CreateTherapist(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Therapist created successfully.", ToTherapistResponse(t))
}

func (h *Handler) updateTherapist(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid therapist ID format."))
		return
	}
	var req UpdateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update therapist: Invalid request body", zap.Error(err), zap.String("therapistID", therapistID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	t, err := h.service.UpdateTherapist(c.Request.Context(), therapistID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Therapist updated successfully.", ToTherapistResponse(t))
}

func (h *Handler) deleteTherapist(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid therapist ID format."))
		return
	}
	if err := h.service.DeleteTherapist(c.Request.Context(), therapistID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
