package middleware

import (
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/gin-gonic/gin"
)

// RateLimit throttles a route per client IP. A failing limiter lets the request through.
func RateLimit(scope string, limiter coreport.RateLimiter, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", map[string]any{
				"scope": scope,
				"error": err,
			})
			c.Next()
			return
		}
		if !ok {
			logger.Info("Request throttled", map[string]any{
				"scope":      scope,
				"ip":         c.ClientIP(),
				"request_id": coreport.RequestIDFrom(c.Request.Context()),
			})
			Fail(c, errs.ErrRateLimited)
			return
		}

		c.Next()
	}
}
