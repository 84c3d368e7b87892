// File: internal/patient/handler.go
package patient

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for patient handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new patient handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for patient operations. Every route
// requires authentication plus the matching `patients.*` permission.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, perm func(permission string) gin.HandlerFunc) {
	patientGroup := router.Group("/patients")
	patientGroup.Use(authMW)
	{
		patientGroup.GET("", perm("patients.read"), h.listPatients)
		patientGroup.GET("/:id", perm("patients.read"), h.getPatient)
		patientGroup.POST("", perm("patients.create"), h.createPatient)
		patientGroup.PUT("/:id", perm("patients.update"), h.updatePatient)
		patientGroup.DELETE("/:id", perm("patients.delete"), h.deletePatient)
	}
}

func (h *Handler) listPatients(c *gin.Context) {
	var query ListPatientsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	patients, total, err := h.service.ListPatients(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	patientResponses := make([]PatientResponse, len(patients))
	for i, p := range patients {
		patientResponses[i] = ToPatientResponse(&p)
	}
	common.RespondPaginated(c, "Patients retrieved successfully.", patientResponses,
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) getPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid patient ID format."))
		return
	}
	p, err := h.service.GetPatientByID(c.Request.Context(), patientID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Patient retrieved successfully.", ToPatientResponse(p))
}

func (h *Handler) createPatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create patient: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	p, err := h.service.CreatePatient(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Patient created successfully.", ToPatientResponse(p))
}

func (h *Handler) updatePatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid patient ID format."))
		return
	}
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update patient: Invalid request body", zap.Error(err), zap.String("patientID", patientID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	p, err := h.service.UpdatePatient(c.Request.Context(), patientID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Patient updated successfully.", ToPatientResponse(p))
}

func (h *Handler) deletePatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid patient ID format."))
		return
	}
	if err := h.service.DeletePatient(c.Request.Context(), patientID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
