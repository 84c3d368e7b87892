// File: internal/middleware/permission.go
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/rbac"
)

// PermissionChecker answers whether a role grants a named permission.
// rbac.Service satisfies it.
type PermissionChecker interface {
	HasPermission(ctx context.Context, roleName, permissionName string) (bool, error)
}

// RequireRoles allows the request through only when the authenticated
// user's role is one of the listed ones. It must run after AuthMiddleware.
func RequireRoles(logger *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}

		logger.Info("Role check denied request",
			zap.String("role", userRole),
			zap.Strings("allowedRoles", allowedRoles),
			zap.String("path", c.FullPath()))
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}

// RequirePermission returns a guard factory: each route names the
// permission it needs and gets a middleware enforcing it. The admin
// role passes every check inside the checker itself. It must run after
// AuthMiddleware.
func RequirePermission(checker PermissionChecker, logger *zap.Logger) func(permission string) gin.HandlerFunc {
	return func(permission string) gin.HandlerFunc {
		return func(c *gin.Context) {
			userRole := common.GetUserRoleFromContext(c)
			if userRole == "" {
				common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
				return
			}

			allowed, err := checker.HasPermission(c.Request.Context(), userRole, permission)
			if err != nil {
				logger.Error("Permission check failed",
					zap.Error(err),
					zap.String("role", userRole),
					zap.String("permission", permission))
				common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not verify permissions."))
				return
			}
			if !allowed {
				logger.Info("Permission check denied request",
					zap.String("role", userRole),
					zap.String("permission", permission),
					zap.String("path", c.FullPath()))
				common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
				return
			}
			c.Next()
		}
	}
}

// interface conformance check
var _ PermissionChecker = (rbac.Service)(nil)
