// Package common provides shared utilities used across all features
package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorResourceConflict(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "RESOURCE_CONFLICT",
		Message:    messageOrDefault(msg, "Resource conflict"),
	}
}

func HTTPErrorUnprocessable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    messageOrDefault(msg, "Unprocessable request"),
	}
}

func HTTPErrorTooManyRequests(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMITED",
		Message:    messageOrDefault(msg, "Too many requests"),
	}
}

func HTTPErrorServiceUnavailable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    messageOrDefault(msg, "Service unavailable"),
	}
}

// HTTPErrorFromDomain maps the routing error taxonomy onto API errors. Errors
// outside the taxonomy become 500s without leaking their text.
func HTTPErrorFromDomain(err error) *HttpError {
	var he *HttpError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &he):
		return he
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrZeroSwapAmount),
		errors.Is(err, domain.ErrInvalidExpectedAmount),
		errors.Is(err, domain.ErrInvalidPriceLimit):
		return HTTPErrorBadRequest(err.Error())
	case errors.Is(err, domain.ErrInvalidSlippageConfig):
		return &HttpError{StatusCode: http.StatusBadRequest, Code: "INVALID_SLIPPAGE_CONFIG", Message: err.Error()}
	case errors.Is(err, domain.ErrPoolNotFound), errors.Is(err, domain.ErrPolicyNotFound):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrNoLiquidityAvailable):
		return HTTPErrorUnprocessable("NO_LIQUIDITY_AVAILABLE", err.Error())
	case errors.Is(err, domain.ErrExecutionReverted):
		return HTTPErrorUnprocessable("EXECUTION_REVERTED", err.Error())
	case errors.Is(err, domain.ErrStaleSnapshot):
		return &HttpError{StatusCode: http.StatusConflict, Code: "STALE_SNAPSHOT", Message: err.Error()}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return HTTPErrorServiceUnavailable("snapshot index unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return &HttpError{StatusCode: http.StatusGatewayTimeout, Code: "TIMEOUT", Message: "request timed out"}
	default:
		return HTTPErrorInternalError("")
	}
}
