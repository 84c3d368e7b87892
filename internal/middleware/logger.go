// File: internal/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_backend/internal/config"
)

const (
	// RequestIDHeader carries the request ID to and from clients.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key holding the request ID.
	RequestIDContextKey = "requestID"
)

// ZapLogger logs one structured entry per request, tagged with a request
// ID taken from the inbound X-Request-ID header or minted here and echoed
// back to the client.
func ZapLogger(logger *zap.Logger, cfg *config.Config) gin.HandlerFunc {
	releaseMode := cfg.GinMode == "release"

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		requestID := ensureRequestID(c)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status_code", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			fields = append(fields, zap.NamedError("error", e.Err))
		}

		// Outside release mode every request logs at Info.
		switch {
		case !releaseMode || status < 400:
			logger.Info("Request handled", fields...)
		case status < 500:
			logger.Warn("Client error", fields...)
		default:
			logger.Error("Server error", fields...)
		}
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		c.Header(RequestIDHeader, requestID)
	}
	c.Set(RequestIDContextKey, requestID)
	return requestID
}
