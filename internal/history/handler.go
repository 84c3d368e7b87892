// File: internal/history/handler.go
package history

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for history handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new history handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for history operations. Histories
// require the matching `histories.*` permission; DIU type reads only
// need authentication while writes require the admin role.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, perm func(permission string) gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	historyGroup := router.Group("/histories")
	historyGroup.Use(authMW)
	{
		historyGroup.GET("", perm("histories.read"), h.listHistories)
		historyGroup.GET("/:id", perm("histories.read"), h.getHistory)
		historyGroup.POST("", perm("histories.create"), h.createHistory)
		historyGroup.PUT("/:id", perm("histories.update"), h.updateHistory)
		historyGroup.DELETE("/:id", perm("histories.delete"), h.deleteHistory)
	}

	// Nested under the patient resource; the param name must match the
	// patient routes registered on the same tree.
	patientHistories := router.Group("/patients/:id/histories")
	patientHistories.Use(authMW)
	{
		patientHistories.GET("", perm("histories.read"), h.listPatientHistories)
	}

	diuGroup := router.Group("/diu-types")
	diuGroup.Use(authMW)
	{
		diuGroup.GET("", h.getAllDIUTypes)
		diuGroup.GET("/:idOrSlug", h.getDIUType)

		adminDIUGroup := diuGroup.Group("")
		adminDIUGroup.Use(adminRoleMW)
		{
			adminDIUGroup.GET("/all", h.adminGetAllDIUTypesIncludingDeleted)
			adminDIUGroup.POST("", h.adminCreateDIUType)
			adminDIUGroup.PUT("/:id", h.adminUpdateDIUType)
			adminDIUGroup.DELETE("/:id", h.adminDeleteDIUType)
			adminDIUGroup.POST("/:id/restore", h.adminRestoreDIUType)
		}
	}
}

func toHistoryResponses(histories []History) []HistoryResponse {
	responses := make([]HistoryResponse, len(histories))
	for i, entry := range histories {
		responses[i] = ToHistoryResponse(&entry)
	}
	return responses
}

func (h *Handler) listHistories(c *gin.Context) {
	var query ListHistoriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	histories, total, err := h.service.ListHistories(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Histories retrieved successfully.", toHistoryResponses(histories),
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) listPatientHistories(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid patient ID format."))
		return
	}
	var pq common.PaginationQuery
	pq.Page, pq.PageSize = common.GetPaginationParams(c)

	histories, total, err := h.service.ListPatientHistories(c.Request.Context(), patientID, pq)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Patient histories retrieved successfully.", toHistoryResponses(histories),
		common.NewPagination(total, pq.Page, pq.PageSize))
}

func (h *Handler) getHistory(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid history ID format."))
		return
	}
	entry, err := h.service.GetHistoryByID(c.Request.Context(), historyID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "History retrieved successfully.", ToHistoryResponse(entry))
}

func (h *Handler) createHistory(c *gin.Context) {
	var req CreateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create history: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	entry, err := h.service.CreateHistory(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "History created successfully.", ToHistoryResponse(entry))
}

func (h *Handler) updateHistory(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid history ID format."))
		return
	}
	var req UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update history: Invalid request body", zap.Error(err), zap.String("historyID", historyID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	entry, err := h.service.UpdateHistory(c.Request.Context(), historyID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "History updated successfully.", ToHistoryResponse(entry))
}

func (h *Handler) deleteHistory(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid history ID format."))
		return
	}
	if err := h.service.DeleteHistory(c.Request.Context(), historyID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

// --- DIU type handlers ---

func (h *Handler) getAllDIUTypes(c *gin.Context) {
	var query ListDIUTypesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	diuTypes, err := h.service.GetAllDIUTypes(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]DIUTypeResponse, len(diuTypes))
	for i, dt := range diuTypes {
		responses[i] = ToDIUTypeResponse(&dt)
	}
	common.RespondOK(c, "DIU types retrieved successfully.", responses)
}

func (h *Handler) getDIUType(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")
	var dt *DIUType
	var err error
	diuTypeID, parseErr := uuid.Parse(idOrSlug)
	if parseErr == nil {
		dt, err = h.service.GetDIUTypeByID(c.Request.Context(), diuTypeID)
	} else {
		dt, err = h.service.GetDIUTypeBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "DIU type retrieved successfully.", ToDIUTypeResponse(dt))
}

func (h *Handler) adminGetAllDIUTypesIncludingDeleted(c *gin.Context) {
	diuTypes, err := h.service.AdminGetAllDIUTypesIncludingDeleted(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]DIUTypeResponse, len(diuTypes))
	for i, dt := range diuTypes {
		responses[i] = ToDIUTypeResponse(&dt)
	}
	common.RespondOK(c, "DIU types retrieved successfully.", responses)
}

func (h *Handler) adminCreateDIUType(c *gin.Context) {
	var req CreateDIUTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin create DIU type: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	dt, err := h.service.AdminCreateDIUType(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "DIU type created successfully.", ToDIUTypeResponse(dt))
}

func (h *Handler) adminUpdateDIUType(c *gin.Context) {
	diuTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid DIU type ID format."))
		return
	}
	var req UpdateDIUTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin update DIU type: Invalid request body", zap.Error(err), zap.String("diuTypeID", diuTypeID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	dt, err := h.service.AdminUpdateDIUType(c.Request.Context(), diuTypeID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "DIU type updated successfully.", ToDIUTypeResponse(dt))
}

func (h *Handler) adminDeleteDIUType(c *gin.Context) {
	diuTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid DIU type ID format."))
		return
	}
	if err := h.service.AdminDeleteDIUType(c.Request.Context(), diuTypeID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) adminRestoreDIUType(c *gin.Context) {
	diuTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid DIU type ID format."))
		return
	}
	dt, err := h.service.AdminRestoreDIUType(c.Request.Context(), diuTypeID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "DIU type restored successfully.", ToDIUTypeResponse(dt))
}
