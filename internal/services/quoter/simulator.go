package quoter

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/clmm"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
)

// simulationCounter samples metrics 1/128 calls.
var simulationCounter atomic.Uint64

// SimulationInput describes one pool's swap request.
type SimulationInput struct {
	Pool       *domain.PoolSnapshot
	TickArrays []domain.TickArray
	Direction  domain.SwapDirection
	// Amount is the exact input for ExactIn and the target output for ExactOut.
	Amount uint64
	// SqrtPriceLimitX64 of nil or zero means no limit.
	SqrtPriceLimitX64 *uint256.Int
}

// Simulate steps the pool across initialized ticks until the amount is satisfied,
// the price limit is hit, or liquidity data runs out. It never mutates the snapshot.
//
// When tick data or liquidity runs out first, the partial quote (Complete=false) is
// returned together with ErrInsufficientTickData or ErrZeroLiquidity.
func Simulate(in SimulationInput) (*domain.Quote, error) {
	sample := simulationCounter.Add(1)&0x7F == 0
	var start time.Time
	if sample {
		start = time.Now()
		defer func() { metrics.SimulationDuration.Observe(time.Since(start).Seconds()) }()
	}

	pool := in.Pool
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	if in.Amount == 0 {
		return nil, fmt.Errorf("%w: amount is zero", domain.ErrInvalidAmount)
	}
	aToB := in.Direction.AToB
	exactIn := in.Direction.Mode == domain.ExactIn

	limit, err := resolvePriceLimit(pool.SqrtPriceX64, in.SqrtPriceLimitX64, aToB)
	if err != nil {
		return nil, err
	}
	seq, err := clmm.NewTickArraySequence(in.TickArrays, pool.TickSpacing, pool.CurrentTick)
	if err != nil {
		return nil, err
	}

	var (
		remaining = uint256.NewInt(in.Amount)
		sqrtPrice = new(uint256.Int).Set(pool.SqrtPriceX64)
		liquidity = new(uint256.Int).Set(pool.Liquidity)
		tick      = pool.CurrentTick
		amountIn  = new(uint256.Int)
		amountOut = new(uint256.Int)
		feePaid   = new(uint256.Int)
		crossed   = []int32{clmm.TickArrayStartIndex(tick, pool.TickSpacing)}
		stopErr   error
	)

	for !remaining.IsZero() && !sqrtPrice.Eq(limit) {
		if liquidity.IsZero() {
			stopErr = fmt.Errorf("%w: pool %s at tick %d", domain.ErrZeroLiquidity, pool.ID, tick)
			break
		}
		next, err := seq.NextInitializedTick(tick, aToB)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientTickData) {
				stopErr = fmt.Errorf("pool %s: %w", pool.ID, err)
				break
			}
			return nil, err
		}
		nextPrice, err := clmm.TickToSqrtPriceX64(next.Index)
		if err != nil {
			return nil, err
		}
		hitsLimit := (aToB && nextPrice.Lt(limit)) || (!aToB && nextPrice.Gt(limit))
		target := nextPrice
		switch {
		case hitsLimit:
			target = limit
		case aToB && nextPrice.Gt(sqrtPrice), !aToB && nextPrice.Lt(sqrtPrice):
			// Snapshot price sits just past its own tick boundary; cross without moving.
			target = sqrtPrice
		}

		step, err := clmm.ComputeSwapStep(sqrtPrice, target, liquidity, remaining, pool.FeeRateBps, exactIn)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pool.ID, err)
		}

		stepIn := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
		if exactIn {
			if stepIn.Gt(remaining) {
				return nil, fmt.Errorf("pool %s: %w: step input exceeds remaining", pool.ID, domain.ErrMathOverflow)
			}
			remaining.Sub(remaining, stepIn)
		} else {
			remaining.Sub(remaining, step.AmountOut)
		}
		amountIn.Add(amountIn, stepIn)
		amountOut.Add(amountOut, step.AmountOut)
		feePaid.Add(feePaid, step.FeeAmount)

		moved := !step.SqrtPriceNext.Eq(sqrtPrice)
		sqrtPrice = step.SqrtPriceNext

		if !hitsLimit && sqrtPrice.Eq(target) {
			if next.Initialized {
				if liquidity, err = clmm.CrossTick(liquidity, next.LiquidityNet, aToB); err != nil {
					return nil, fmt.Errorf("pool %s crossing tick %d: %w", pool.ID, next.Index, err)
				}
			}
			if seq.Covers(next.Index) {
				crossed = appendStart(crossed, clmm.TickArrayStartIndex(next.Index, pool.TickSpacing))
			}
			if aToB {
				tick = next.Index - 1
			} else {
				tick = next.Index
			}
			if seq.Covers(tick) {
				crossed = appendStart(crossed, clmm.TickArrayStartIndex(tick, pool.TickSpacing))
			}
		} else if moved {
			if tick, err = clmm.SqrtPriceX64ToTick(sqrtPrice); err != nil {
				return nil, fmt.Errorf("pool %s: %w", pool.ID, err)
			}
		}
	}

	quote := &domain.Quote{
		SqrtPriceAfter:         sqrtPrice,
		TickAfter:              tick,
		PriceImpactBps:         PriceImpactBps(pool.SqrtPriceX64, sqrtPrice),
		CrossedTickArrayStarts: crossed,
		Complete:               remaining.IsZero(),
	}
	if quote.AmountIn, err = clmm.ToUint64(amountIn); err != nil {
		return nil, fmt.Errorf("pool %s amount in: %w", pool.ID, err)
	}
	if quote.AmountOut, err = clmm.ToUint64(amountOut); err != nil {
		return nil, fmt.Errorf("pool %s amount out: %w", pool.ID, err)
	}
	if quote.FeePaid, err = clmm.ToUint64(feePaid); err != nil {
		return nil, fmt.Errorf("pool %s fee: %w", pool.ID, err)
	}
	if stopErr != nil {
		quote.Complete = false
		return quote, stopErr
	}
	return quote, nil
}

// resolvePriceLimit maps an absent limit to the protocol bound in the direction of
// travel and rejects limits on the wrong side of the current price.
func resolvePriceLimit(current, limit *uint256.Int, aToB bool) (*uint256.Int, error) {
	var resolved *uint256.Int
	switch {
	case limit != nil && !limit.IsZero():
		if !limit.Gt(clmm.MinSqrtPriceX64) || !limit.Lt(clmm.MaxSqrtPriceX64) {
			return nil, fmt.Errorf("%w: %s outside protocol bounds", domain.ErrInvalidPriceLimit, limit.Dec())
		}
		resolved = new(uint256.Int).Set(limit)
	case aToB:
		resolved = new(uint256.Int).AddUint64(clmm.MinSqrtPriceX64, 1)
	default:
		resolved = new(uint256.Int).SubUint64(clmm.MaxSqrtPriceX64, 1)
	}
	if aToB && !resolved.Lt(current) {
		return nil, fmt.Errorf("%w: %s not below current price %s", domain.ErrInvalidPriceLimit, resolved.Dec(), current.Dec())
	}
	if !aToB && !resolved.Gt(current) {
		return nil, fmt.Errorf("%w: %s not above current price %s", domain.ErrInvalidPriceLimit, resolved.Dec(), current.Dec())
	}
	return resolved, nil
}

func appendStart(starts []int32, start int32) []int32 {
	for _, s := range starts {
		if s == start {
			return starts
		}
	}
	return append(starts, start)
}
