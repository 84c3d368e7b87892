// File: internal/appointment/handler.go
package appointment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for appointment handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new appointment handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for appointment and ticket
// operations. Every route requires authentication plus the matching
// `appointments.*` permission.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, perm func(permission string) gin.HandlerFunc) {
	appointmentGroup := router.Group("/appointments")
	appointmentGroup.Use(authMW)
	{
		appointmentGroup.GET("", perm("appointments.read"), h.listAppointments)
		appointmentGroup.GET("/completed", perm("appointments.read"), h.listCompletedAppointments)
		appointmentGroup.GET("/pending", perm("appointments.read"), h.listPendingAppointments)
		appointmentGroup.GET("/availability", perm("appointments.read"), h.checkAvailability)
		appointmentGroup.GET("/search", perm("appointments.read"), h.searchAppointments)
		appointmentGroup.GET("/:id", perm("appointments.read"), h.getAppointment)
		appointmentGroup.GET("/:id/ticket", perm("appointments.read"), h.getTicket)
		appointmentGroup.POST("", perm("appointments.create"), h.createAppointment)
		appointmentGroup.PUT("/:id", perm("appointments.update"), h.updateAppointment)
		appointmentGroup.PATCH("/:id/status", perm("appointments.update"), h.changeStatus)
		appointmentGroup.DELETE("/:id", perm("appointments.delete"), h.deleteAppointment)
	}

	ticketGroup := router.Group("/tickets")
	ticketGroup.Use(authMW)
	{
		ticketGroup.GET("", perm("appointments.read"), h.listTicketsByDay)
	}
}

func toAppointmentResponses(appts []Appointment) []AppointmentResponse {
	responses := make([]AppointmentResponse, len(appts))
	for i := range appts {
		responses[i] = ToAppointmentResponse(&appts[i])
	}
	return responses
}

func (h *Handler) listAppointments(c *gin.Context) {
	var query ListAppointmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	appts, total, err := h.service.ListAppointments(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Appointments retrieved successfully.", toAppointmentResponses(appts),
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) listCompletedAppointments(c *gin.Context) {
	var query StatusBucketQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	appts, total, err := h.service.ListCompletedAppointments(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Completed appointments retrieved successfully.", toAppointmentResponses(appts),
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) listPendingAppointments(c *gin.Context) {
	var query StatusBucketQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	appts, total, err := h.service.ListPendingAppointments(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Pending appointments retrieved successfully.", toAppointmentResponses(appts),
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) checkAvailability(c *gin.Context) {
	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	availability, err := h.service.CheckAvailability(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Availability checked successfully.", availability)
}

func (h *Handler) searchAppointments(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	query.Page, query.PageSize = common.GetPaginationParams(c)

	hits, total, err := h.service.SearchAppointments(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Search results retrieved successfully.", hits,
		common.NewPagination(total, query.Page, query.PageSize))
}

func (h *Handler) getAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return
	}
	appt, err := h.service.GetAppointmentByID(c.Request.Context(), appointmentID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment retrieved successfully.", ToAppointmentResponse(appt))
}

func (h *Handler) getTicket(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return
	}
	ticket, err := h.service.GetTicket(c.Request.Context(), appointmentID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Ticket retrieved successfully.", ToTicketResponse(ticket))
}

func (h *Handler) createAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create appointment: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	appt, err := h.service.CreateAppointment(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Appointment created successfully.", ToAppointmentResponse(appt))
}

func (h *Handler) updateAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return
	}
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update appointment: Invalid request body",
			zap.Error(err), zap.String("appointmentID", appointmentID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	appt, err := h.service.UpdateAppointment(c.Request.Context(), appointmentID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment updated successfully.", ToAppointmentResponse(appt))
}

func (h *Handler) changeStatus(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return
	}
	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	appt, err := h.service.ChangeStatus(c.Request.Context(), appointmentID, req.StatusID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment status updated successfully.", ToAppointmentResponse(appt))
}

func (h *Handler) deleteAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid appointment ID format."))
		return
	}
	if err := h.service.DeleteAppointment(c.Request.Context(), appointmentID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) listTicketsByDay(c *gin.Context) {
	tickets, err := h.service.ListTicketsByDay(c.Request.Context(), c.Query("date"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	ticketResponses := make([]TicketResponse, len(tickets))
	for i := range tickets {
		ticketResponses[i] = ToTicketResponse(&tickets[i])
	}
	common.RespondOK(c, "Tickets retrieved successfully.", ticketResponses)
}
