package clmm

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// FeeRateDenominator is the basis-point scale of PoolSnapshot.FeeRateBps.
const FeeRateDenominator = 10000

var (
	u256One       = uint256.NewInt(1)
	u256Q64       = new(uint256.Int).Lsh(u256One, 64)
	u256FeeDenom  = uint256.NewInt(FeeRateDenominator)
	u256MaxU128   = new(uint256.Int).Sub(new(uint256.Int).Lsh(u256One, 128), u256One)
	u256MaxUint64 = uint256.NewInt(^uint64(0))
)

// Scratch values for the hot path.
var scratch = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

func getU256() *uint256.Int {
	return scratch.Get().(*uint256.Int)
}

func putU256(vs ...*uint256.Int) {
	for _, v := range vs {
		v.Clear()
		scratch.Put(v)
	}
}

// MulDiv returns floor(x*y/d) using a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, domain.ErrMathOverflow
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, domain.ErrMathOverflow
	}
	return z, nil
}

// MulDivRoundingUp returns ceil(x*y/d).
func MulDivRoundingUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(x, y, d)
	if err != nil {
		return nil, err
	}
	rem := getU256()
	defer putU256(rem)
	if !rem.MulMod(x, y, d).IsZero() {
		if _, overflow := z.AddOverflow(z, u256One); overflow {
			return nil, domain.ErrMathOverflow
		}
	}
	return z, nil
}

// DivRoundingUp returns ceil(x/d).
func DivRoundingUp(x, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, domain.ErrMathOverflow
	}
	q := new(uint256.Int)
	r := getU256()
	defer putU256(r)
	q.DivMod(x, d, r)
	if !r.IsZero() {
		q.Add(q, u256One)
	}
	return q, nil
}

// AddLiquidityDelta applies a signed tick liquidity delta. Results outside [0, 2^128) overflow.
func AddLiquidityDelta(liquidity *uint256.Int, delta *uint256.Int, negative bool) (*uint256.Int, error) {
	out := new(uint256.Int)
	if negative {
		if liquidity.Lt(delta) {
			return nil, domain.ErrMathOverflow
		}
		return out.Sub(liquidity, delta), nil
	}
	out.Add(liquidity, delta)
	if out.Gt(u256MaxU128) {
		return nil, domain.ErrMathOverflow
	}
	return out, nil
}

// ToUint64 narrows an accumulated amount, failing instead of truncating.
func ToUint64(v *uint256.Int) (uint64, error) {
	if v.Gt(u256MaxUint64) {
		return 0, domain.ErrMathOverflow
	}
	return v.Uint64(), nil
}
