// File: internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/shared"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
// It only accepts access tokens: refresh tokens, whatever their
// signature, never grant API access. Revoked tokens are rejected
// through the blocklist.
func AuthMiddleware(tokenService shared.TokenService, blocklist shared.TokenBlocklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], common.AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid", zap.String("header", authHeader))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		tokenString := parts[1]
		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		if claims.TokenType != shared.TokenTypeAccess {
			logger.Warn("Non-access token presented for API access",
				zap.String("tokenType", claims.TokenType),
				zap.String("userID", claims.UserID.String()))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Only access tokens may be used for API requests."))
			return
		}

		blocked, err := blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Error("Failed to check token blocklist", zap.Error(err), zap.String("jti", claims.ID))
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not verify the token."))
			return
		}
		if blocked {
			logger.Info("Revoked token rejected", zap.String("jti", claims.ID), zap.String("userID", claims.UserID.String()))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Token has been revoked."))
			return
		}

		// Set user information in context for downstream handlers.
		c.Set(common.UserIDKey, claims.UserID)
		c.Set(common.UserEmailKey, claims.Email)
		c.Set(common.UserRoleKey, claims.Role)
		c.Set(common.TokenJTIKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(common.TokenExpiresAtKey, claims.ExpiresAt.Time)
		}

		logger.Debug("User authenticated successfully",
			zap.String("userID", claims.UserID.String()),
			zap.String("role", claims.Role),
		)

		c.Next()
	}
}
