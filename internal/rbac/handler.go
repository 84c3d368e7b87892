// File: internal/rbac/handler.go
package rbac

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// Handler struct holds dependencies for role and permission handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new RBAC handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for role and permission management.
// Everything here is admin-only.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	roleGroup := router.Group("/roles")
	roleGroup.Use(authMW)
	roleGroup.Use(adminRoleMW)
	{
		roleGroup.GET("", h.listRoles)
		roleGroup.GET("/:id", h.getRole)
		roleGroup.POST("", h.createRole)
		roleGroup.PUT("/:id", h.updateRole)
		roleGroup.DELETE("/:id", h.deleteRole)
		roleGroup.GET("/:id/permissions", h.getRolePermissions)
		roleGroup.POST("/:id/permissions/:permissionId", h.assignPermission)
		roleGroup.DELETE("/:id/permissions/:permissionId", h.revokePermission)
	}

	permissionGroup := router.Group("/permissions")
	permissionGroup.Use(authMW)
	permissionGroup.Use(adminRoleMW)
	{
		permissionGroup.GET("", h.listPermissions)
		permissionGroup.POST("", h.createPermission)
		permissionGroup.DELETE("/:id", h.deletePermission)
	}
}

func (h *Handler) listRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	roleResponses := make([]RoleResponse, len(roles))
	for i, role := range roles {
		roleResponses[i] = ToRoleResponse(&role)
	}
	common.RespondOK(c, "Roles retrieved successfully.", roleResponses)
}

func (h *Handler) getRole(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	role, err := h.service.GetRoleByID(c.Request.Context(), roleID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Role retrieved successfully.", ToRoleResponse(role))
}

func (h *Handler) createRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create role: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	role, err := h.service.CreateRole(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Role created successfully.", ToRoleResponse(role))
}

func (h *Handler) updateRole(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update role: Invalid request body", zap.Error(err), zap.String("roleID", roleID.String()))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	role, err := h.service.UpdateRole(c.Request.Context(), roleID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Role updated successfully.", ToRoleResponse(role))
}

func (h *Handler) deleteRole(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	if err := h.service.DeleteRole(c.Request.Context(), roleID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) getRolePermissions(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	permissions, err := h.service.GetRolePermissions(c.Request.Context(), roleID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	permissionResponses := make([]PermissionResponse, len(permissions))
	for i, p := range permissions {
		permissionResponses[i] = ToPermissionResponse(&p)
	}
	common.RespondOK(c, "Role permissions retrieved successfully.", permissionResponses)
}

func (h *Handler) assignPermission(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	permissionID, err := uuid.Parse(c.Param("permissionId"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid permission ID format."))
		return
	}
	if err := h.service.AssignPermissionToRole(c.Request.Context(), roleID, permissionID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Permission assigned to role successfully.", nil)
}

func (h *Handler) revokePermission(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid role ID format."))
		return
	}
	permissionID, err := uuid.Parse(c.Param("permissionId"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid permission ID format."))
		return
	}
	if err := h.service.RevokePermissionFromRole(c.Request.Context(), roleID, permissionID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) listPermissions(c *gin.Context) {
	permissions, err := h.service.ListPermissions(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	permissionResponses := make([]PermissionResponse, len(permissions))
	for i, p := range permissions {
		permissionResponses[i] = ToPermissionResponse(&p)
	}
	common.RespondOK(c, "Permissions retrieved successfully.", permissionResponses)
}

func (h *Handler) createPermission(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create permission: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	permission, err := h.service.CreatePermission(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Permission created successfully.", ToPermissionResponse(permission))
}

func (h *Handler) deletePermission(c *gin.Context) {
	permissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid permission ID format."))
		return
	}
	if err := h.service.DeletePermission(c.Request.Context(), permissionID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
