package middleware

import (
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/gin-gonic/gin"
)

// Logger middleware logs incoming requests and their responses
func Logger(logger coreport.Logger, timeProvider coreport.TimeProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeProvider.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": timeProvider.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": coreport.RequestIDFrom(c.Request.Context()),
			"user_agent": c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", fields)
		case status >= 400:
			logger.Info("Request rejected", fields)
		default:
			logger.Debug("Request processed", fields)
		}
	}
}
