// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
)

// ErrorHandler turns errors attached to the gin context into the JSON
// error body and gives bare 404/405 responses the same shape. Handlers
// that respond through common.RespondWithError never reach the mapping;
// this is the net under everything else.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if ginErr := c.Errors.Last(); ginErr != nil {
			writeMappedError(c, logger, ginErr)
			return
		}

		switch c.Writer.Status() {
		case http.StatusNotFound:
			apiErr := common.ErrNotFound.WithDetails("The requested endpoint does not exist.")
			c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
		case http.StatusMethodNotAllowed:
			apiErr := common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
				"The method is not allowed for the requested URL.")
			c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
		}
	}
}

func writeMappedError(c *gin.Context, logger *zap.Logger, ginErr *gin.Error) {
	if apiErr, ok := common.IsAPIError(ginErr.Err); ok {
		c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
		return
	}

	logger.Error("Unhandled application error",
		zap.Error(ginErr.Err),
		zap.String("path", c.Request.URL.Path),
		zap.Any("meta", ginErr.Meta),
		zap.String("request_id", c.GetString(RequestIDContextKey)),
	)

	apiErr := common.ErrInternalServer.WithDetails("An unexpected error occurred.")
	if gin.Mode() == gin.DebugMode && ginErr.Err != nil {
		apiErr.Details = ginErr.Err.Error()
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}
