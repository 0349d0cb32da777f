package middleware

import (
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id in both directions
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// RequestID adopts the caller's correlation id or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(coreport.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
