package middleware

import (
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/platform/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// StructuredLoggingMiddleware creates a Gin middleware handler that injects
// a request-scoped logger into the request context.
func StructuredLoggingMiddleware(baseLogger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Create a logger enriched with request-specific fields
		requestLogger := baseLogger.With().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Logger()

		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), requestLogger))

		c.Next()

		requestLogger.Info().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request completed")
	}
}

// GetLoggerFromContext retrieves the request-scoped logger. It returns a disabled
// logger when the middleware was not applied.
func GetLoggerFromContext(c *gin.Context) *zerolog.Logger {
	return logging.FromContext(c.Request.Context())
}
