// File: internal/common/context_helpers.go
package common

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetTokenFromContext retrieves the JWT token string from the Authorization header.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetUserIDFromContext retrieves the user ID from the Gin context.
// Returns uuid.Nil if not found or not a UUID.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetUserEmailFromContext retrieves the user email from the Gin context.
func GetUserEmailFromContext(c *gin.Context) string {
	val, exists := c.Get(UserEmailKey)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}

// GetUserRoleFromContext retrieves the user role from the Gin context.
func GetUserRoleFromContext(c *gin.Context) string {
	val, exists := c.Get(UserRoleKey)
	if !exists {
		return ""
	}
	role, ok := val.(string)
	if !ok {
		return ""
	}
	return role
}

// GetTokenJTIFromContext retrieves the access token's JWT ID from the Gin context.
func GetTokenJTIFromContext(c *gin.Context) string {
	val, exists := c.Get(TokenJTIKey)
	if !exists {
		return ""
	}
	jti, ok := val.(string)
	if !ok {
		return ""
	}
	return jti
}

// GetTokenExpiresAtFromContext retrieves the access token's expiry from the Gin context.
// Returns the zero time when absent.
func GetTokenExpiresAtFromContext(c *gin.Context) time.Time {
	val, exists := c.Get(TokenExpiresAtKey)
	if !exists {
		return time.Time{}
	}
	expiresAt, ok := val.(time.Time)
	if !ok {
		return time.Time{}
	}
	return expiresAt
}
