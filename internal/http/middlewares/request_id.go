package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hxuan190/clmm-router/internal/http/httputil"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing a caller-supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(httputil.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
