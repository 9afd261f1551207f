package domain

import "errors"

var (
	// Per-pool simulation failures. These exclude a pool but never abort routing.
	ErrMathOverflow         = errors.New("math overflow")
	ErrInsufficientTickData = errors.New("insufficient tick data")
	ErrZeroLiquidity        = errors.New("zero liquidity")
	ErrInvalidSnapshot      = errors.New("invalid pool snapshot")
	ErrInvalidPriceLimit    = errors.New("invalid sqrt price limit")
	ErrInvalidAmount        = errors.New("invalid amount")

	// Request-level failures.
	ErrNoLiquidityAvailable  = errors.New("no liquidity available")
	ErrInvalidSlippageConfig = errors.New("invalid slippage config")
	ErrZeroSwapAmount        = errors.New("zero swap amount")
	ErrInvalidExpectedAmount = errors.New("invalid expected amount")
	ErrPolicyNotFound        = errors.New("slippage policy not found")
	ErrPoolNotFound          = errors.New("pool not found")

	// Reported by the settlement port, surfaced unchanged.
	ErrExecutionReverted = errors.New("execution reverted")
	ErrStaleSnapshot     = errors.New("stale snapshot")
)
