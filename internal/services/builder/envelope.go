package builder

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/clmm"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
)

const bpsDenominator = 10000

var u256BpsDenom = uint256.NewInt(bpsDenominator)

// Threshold is the worst acceptable other-side amount for a quote: min-out for
// ExactIn, rounded down, and max-in for ExactOut, rounded up.
func Threshold(mode domain.SwapMode, quote *domain.Quote, bps uint16) (uint64, error) {
	if err := (domain.SlippagePolicy{Bps: bps}).Validate(); err != nil {
		return 0, err
	}
	var v *uint256.Int
	var err error
	if mode == domain.ExactOut {
		factor := uint256.NewInt(bpsDenominator + uint64(bps))
		v, err = clmm.MulDivRoundingUp(uint256.NewInt(quote.AmountIn), factor, u256BpsDenom)
	} else {
		factor := uint256.NewInt(bpsDenominator - uint64(bps))
		v, err = clmm.MulDiv(uint256.NewInt(quote.AmountOut), factor, u256BpsDenom)
	}
	if err != nil {
		return 0, err
	}
	return clmm.ToUint64(v)
}

// BuildEnvelope turns a routed quote and the account's slippage policy into the
// parameters handed to settlement. sqrtPriceLimitX64 is forwarded unchanged; nil
// becomes zero, meaning unbounded.
func BuildEnvelope(sel *domain.RouteSelection, policy domain.SlippagePolicy, sqrtPriceLimitX64 *uint256.Int) (*domain.ExecutionEnvelope, error) {
	env, err := buildEnvelope(sel, policy, sqrtPriceLimitX64)
	status := "ok"
	if err != nil {
		status = "rejected"
	}
	metrics.EnvelopeBuilds.WithLabelValues(status).Inc()
	return env, err
}

func buildEnvelope(sel *domain.RouteSelection, policy domain.SlippagePolicy, sqrtPriceLimitX64 *uint256.Int) (*domain.ExecutionEnvelope, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if sel == nil {
		return nil, fmt.Errorf("%w: no route selection", domain.ErrInvalidAmount)
	}
	q := &sel.Quote
	mode := sel.Direction.Mode

	amount, other := q.AmountIn, q.AmountOut
	if mode == domain.ExactOut {
		amount, other = q.AmountOut, q.AmountIn
	}
	if amount == 0 {
		return nil, domain.ErrZeroSwapAmount
	}
	if other == 0 {
		return nil, domain.ErrInvalidExpectedAmount
	}

	threshold, err := Threshold(mode, q, policy.Bps)
	if err != nil {
		return nil, fmt.Errorf("threshold for pool %s: %w", sel.Pool.ID, err)
	}

	limit := new(uint256.Int)
	if sqrtPriceLimitX64 != nil {
		limit.Set(sqrtPriceLimitX64)
	}
	return &domain.ExecutionEnvelope{
		PoolID:            sel.Pool.ID,
		Direction:         sel.Direction,
		Amount:            amount,
		ThresholdAmount:   threshold,
		SqrtPriceLimitX64: limit,
		Snapshot:          sel.Pool,
	}, nil
}
