package clmm

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func ordered(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Gt(b) {
		return b, a
	}
	return a, b
}

// GetAmountADelta is the token A amount between two sqrt prices at liquidity L:
// L * (sqrtB - sqrtA) / (sqrtA * sqrtB).
func GetAmountADelta(sqrtPriceA, sqrtPriceB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lower, upper := ordered(sqrtPriceA, sqrtPriceB)
	if lower.IsZero() {
		return nil, domain.ErrMathOverflow
	}
	numerator1 := getU256()
	numerator2 := getU256()
	defer putU256(numerator1, numerator2)
	numerator1.Lsh(liquidity, 64)
	numerator2.Sub(upper, lower)

	if roundUp {
		v, err := MulDivRoundingUp(numerator1, numerator2, upper)
		if err != nil {
			return nil, err
		}
		return DivRoundingUp(v, lower)
	}
	v, err := MulDiv(numerator1, numerator2, upper)
	if err != nil {
		return nil, err
	}
	return v.Div(v, lower), nil
}

// GetAmountBDelta is the token B amount between two sqrt prices at liquidity L:
// L * (sqrtB - sqrtA) / 2^64.
func GetAmountBDelta(sqrtPriceA, sqrtPriceB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lower, upper := ordered(sqrtPriceA, sqrtPriceB)
	diff := getU256()
	defer putU256(diff)
	diff.Sub(upper, lower)

	if roundUp {
		return MulDivRoundingUp(liquidity, diff, u256Q64)
	}
	return MulDiv(liquidity, diff, u256Q64)
}

// nextSqrtPriceFromAmountA rounds up: adding A lowers the price, and the
// lower price is never understated.
func nextSqrtPriceFromAmountA(sqrtPrice, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPrice), nil
	}
	numerator1 := getU256()
	product := getU256()
	denominator := getU256()
	defer putU256(numerator1, product, denominator)

	numerator1.Lsh(liquidity, 64)
	product.Mul(amount, sqrtPrice)

	if add {
		denominator.Add(numerator1, product)
	} else {
		if !numerator1.Gt(product) {
			return nil, domain.ErrMathOverflow
		}
		denominator.Sub(numerator1, product)
	}
	next, err := MulDivRoundingUp(numerator1, sqrtPrice, denominator)
	if err != nil {
		return nil, err
	}
	if next.Gt(u256MaxU128) {
		return nil, domain.ErrMathOverflow
	}
	return next, nil
}

// nextSqrtPriceFromAmountB rounds down: adding B raises the price, and the
// raised price is never overstated.
func nextSqrtPriceFromAmountB(sqrtPrice, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	shifted := getU256()
	defer putU256(shifted)
	shifted.Lsh(amount, 64)

	next := new(uint256.Int)
	if add {
		quotient := getU256()
		defer putU256(quotient)
		quotient.Div(shifted, liquidity)
		next.Add(sqrtPrice, quotient)
		if next.Gt(u256MaxU128) {
			return nil, domain.ErrMathOverflow
		}
		return next, nil
	}
	quotient, err := DivRoundingUp(shifted, liquidity)
	if err != nil {
		return nil, err
	}
	if !sqrtPrice.Gt(quotient) {
		return nil, domain.ErrMathOverflow
	}
	return next.Sub(sqrtPrice, quotient), nil
}

// NextSqrtPriceFromInput moves the price by an input amount of the token being sold.
func NextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn *uint256.Int, aToB bool) (*uint256.Int, error) {
	if sqrtPrice.IsZero() {
		return nil, domain.ErrMathOverflow
	}
	if liquidity.IsZero() {
		return nil, domain.ErrZeroLiquidity
	}
	if aToB {
		return nextSqrtPriceFromAmountA(sqrtPrice, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmountB(sqrtPrice, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput moves the price by an output amount of the token being bought.
func NextSqrtPriceFromOutput(sqrtPrice, liquidity, amountOut *uint256.Int, aToB bool) (*uint256.Int, error) {
	if sqrtPrice.IsZero() {
		return nil, domain.ErrMathOverflow
	}
	if liquidity.IsZero() {
		return nil, domain.ErrZeroLiquidity
	}
	if aToB {
		return nextSqrtPriceFromAmountB(sqrtPrice, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmountA(sqrtPrice, liquidity, amountOut, false)
}
