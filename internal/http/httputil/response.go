package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-router/internal/common"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Code      string      `json:"code,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
	})
}

func Error(c *gin.Context, e *common.HttpError) {
	c.AbortWithStatusJSON(e.StatusCode, Response{
		Success:   false,
		Code:      e.Code,
		Error:     e.Message,
		RequestID: requestID(c),
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, common.HTTPErrorBadRequest(msg))
}

// FromError writes the API error for a service error.
func FromError(c *gin.Context, err error) {
	Error(c, common.HTTPErrorFromDomain(err))
}
