package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func TestHTTPErrorFromDomain(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("route: %w", domain.ErrNoLiquidityAvailable), http.StatusUnprocessableEntity, "NO_LIQUIDITY_AVAILABLE"},
		{domain.ErrInvalidSlippageConfig, http.StatusBadRequest, "INVALID_SLIPPAGE_CONFIG"},
		{domain.ErrInvalidAmount, http.StatusBadRequest, "BAD_REQUEST"},
		{domain.ErrZeroSwapAmount, http.StatusBadRequest, "BAD_REQUEST"},
		{domain.ErrInvalidPriceLimit, http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("settle: %w", domain.ErrExecutionReverted), http.StatusUnprocessableEntity, "EXECUTION_REVERTED"},
		{domain.ErrStaleSnapshot, http.StatusConflict, "STALE_SNAPSHOT"},
		{domain.ErrPoolNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("index: %w", gobreaker.ErrOpenState), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{HTTPErrorTooManyRequests(""), http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			he := HTTPErrorFromDomain(tt.err)
			assert.Equal(t, tt.status, he.StatusCode)
			assert.Equal(t, tt.code, he.Code)
		})
	}

	assert.Nil(t, HTTPErrorFromDomain(nil))
	assert.NotContains(t, HTTPErrorFromDomain(errors.New("secret dsn")).Message, "secret")
}
