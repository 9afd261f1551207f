package clmm

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// SwapStep is the outcome of swapping within one constant-liquidity price range.
type SwapStep struct {
	SqrtPriceNext *uint256.Int
	AmountIn      *uint256.Int
	AmountOut     *uint256.Int
	FeeAmount     *uint256.Int
}

// ReachedTarget reports whether the step ran all the way to the range boundary.
func (s *SwapStep) ReachedTarget(target *uint256.Int) bool {
	return s.SqrtPriceNext.Eq(target)
}

// ComputeSwapStep swaps as much of amountRemaining as fits between sqrtPriceCurrent
// and sqrtPriceTarget. For exact input the fee is carved out of the input before the
// price moves; for exact output amountRemaining is the output still required.
// Input amounts round up and output amounts round down.
func ComputeSwapStep(
	sqrtPriceCurrent, sqrtPriceTarget, liquidity, amountRemaining *uint256.Int,
	feeRateBps uint32,
	exactIn bool,
) (*SwapStep, error) {
	if feeRateBps >= FeeRateDenominator {
		return nil, domain.ErrMathOverflow
	}
	aToB := !sqrtPriceCurrent.Lt(sqrtPriceTarget)
	feeRate := uint256.NewInt(uint64(feeRateBps))
	feeComplement := new(uint256.Int).Sub(u256FeeDenom, feeRate)

	step := &SwapStep{}
	var (
		amountIn  *uint256.Int
		amountOut *uint256.Int
		err       error
	)

	if exactIn {
		lessFee, err := MulDiv(amountRemaining, feeComplement, u256FeeDenom)
		if err != nil {
			return nil, err
		}
		if aToB {
			amountIn, err = GetAmountADelta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
		} else {
			amountIn, err = GetAmountBDelta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
		}
		if err != nil {
			return nil, err
		}
		if !lessFee.Lt(amountIn) {
			step.SqrtPriceNext = new(uint256.Int).Set(sqrtPriceTarget)
		} else {
			step.SqrtPriceNext, err = NextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, lessFee, aToB)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if aToB {
			amountOut, err = GetAmountBDelta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, false)
		} else {
			amountOut, err = GetAmountADelta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, false)
		}
		if err != nil {
			return nil, err
		}
		if !amountRemaining.Lt(amountOut) {
			step.SqrtPriceNext = new(uint256.Int).Set(sqrtPriceTarget)
		} else {
			step.SqrtPriceNext, err = NextSqrtPriceFromOutput(sqrtPriceCurrent, liquidity, amountRemaining, aToB)
			if err != nil {
				return nil, err
			}
		}
	}

	reached := step.SqrtPriceNext.Eq(sqrtPriceTarget)
	if aToB {
		if !(reached && exactIn) {
			if amountIn, err = GetAmountADelta(step.SqrtPriceNext, sqrtPriceCurrent, liquidity, true); err != nil {
				return nil, err
			}
		}
		if !(reached && !exactIn) {
			if amountOut, err = GetAmountBDelta(step.SqrtPriceNext, sqrtPriceCurrent, liquidity, false); err != nil {
				return nil, err
			}
		}
	} else {
		if !(reached && exactIn) {
			if amountIn, err = GetAmountBDelta(sqrtPriceCurrent, step.SqrtPriceNext, liquidity, true); err != nil {
				return nil, err
			}
		}
		if !(reached && !exactIn) {
			if amountOut, err = GetAmountADelta(sqrtPriceCurrent, step.SqrtPriceNext, liquidity, false); err != nil {
				return nil, err
			}
		}
	}

	if !exactIn && amountOut.Gt(amountRemaining) {
		amountOut = new(uint256.Int).Set(amountRemaining)
	}

	if exactIn && !reached {
		if amountIn.Gt(amountRemaining) {
			return nil, domain.ErrMathOverflow
		}
		// The whole remainder is spent; what did not move the price is fee.
		step.FeeAmount = new(uint256.Int).Sub(amountRemaining, amountIn)
	} else {
		step.FeeAmount, err = MulDivRoundingUp(amountIn, feeRate, feeComplement)
		if err != nil {
			return nil, err
		}
		if exactIn {
			// Rounding at the boundary can push input plus fee past the remainder.
			if amountIn.Gt(amountRemaining) {
				return nil, domain.ErrMathOverflow
			}
			spent := new(uint256.Int).Add(amountIn, step.FeeAmount)
			if spent.Gt(amountRemaining) {
				step.FeeAmount.Sub(amountRemaining, amountIn)
			}
		}
	}

	step.AmountIn = amountIn
	step.AmountOut = amountOut
	return step, nil
}
