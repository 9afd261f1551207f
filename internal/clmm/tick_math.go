package clmm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

const (
	MinTick = domain.MinTick
	MaxTick = domain.MaxTick
)

var (
	MinSqrtPriceX64 = domain.MinSqrtPriceX64
	MaxSqrtPriceX64 = domain.MaxSqrtPriceX64
)

// sqrt(1.0001^-(2^i)) in Q128, one entry per bit of |tick|.
var tickRatios = [20]*uint256.Int{
	uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

var (
	q128    = new(uint256.Int).Lsh(u256One, 128)
	u256Max = new(uint256.Int).SetAllOne()
	lowMask = new(uint256.Int).Sub(new(uint256.Int).Lsh(u256One, 64), u256One)
)

// TickToSqrtPriceX64 returns sqrt(1.0001^tick) as a Q64.64 value, rounded up.
func TickToSqrtPriceX64(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: tick %d out of range", domain.ErrMathOverflow, tick)
	}
	abs := uint32(tick)
	if tick < 0 {
		abs = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if abs&1 != 0 {
		ratio.Set(tickRatios[0])
	} else {
		ratio.Set(q128)
	}
	for i := 1; i < len(tickRatios); i++ {
		if abs&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, tickRatios[i])
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(u256Max, ratio)
	}

	// Q128 -> Q64, rounding up so the price never understates the tick.
	frac := getU256()
	defer putU256(frac)
	frac.And(ratio, lowMask)
	ratio.Rsh(ratio, 64)
	if !frac.IsZero() {
		ratio.Add(ratio, u256One)
	}
	return ratio, nil
}

// SqrtPriceX64ToTick returns the greatest tick whose sqrt price is <= sqrtPriceX64.
func SqrtPriceX64ToTick(sqrtPriceX64 *uint256.Int) (int32, error) {
	if sqrtPriceX64 == nil || sqrtPriceX64.Lt(MinSqrtPriceX64) || sqrtPriceX64.Gt(MaxSqrtPriceX64) {
		return 0, fmt.Errorf("%w: sqrt price out of range", domain.ErrMathOverflow)
	}
	lo, hi := MinTick, MaxTick
	for lo < hi {
		// Upper midpoint so lo always advances.
		mid := lo + (hi-lo+1)/2
		p, err := TickToSqrtPriceX64(mid)
		if err != nil {
			return 0, err
		}
		if p.Gt(sqrtPriceX64) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}
