package quoter

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/clmm"
)

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      uint16 = 100  // 1%
	PriceImpactModerate uint16 = 300  // 3%
	PriceImpactHigh     uint16 = 500  // 5%
	PriceImpactExtreme  uint16 = 1000 // 10%
)

type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"
	SeverityLow      PriceImpactSeverity = "low"
	SeverityModerate PriceImpactSeverity = "moderate"
	SeverityHigh     PriceImpactSeverity = "high"
	SeverityExtreme  PriceImpactSeverity = "extreme"
)

var bpsDenom = uint256.NewInt(10000)

// PriceImpactBps is the relative move of the sqrt price in basis points,
// rounded up and capped at 65535.
func PriceImpactBps(sqrtPriceBefore, sqrtPriceAfter *uint256.Int) uint16 {
	if sqrtPriceBefore == nil || sqrtPriceAfter == nil || sqrtPriceBefore.IsZero() {
		return 0
	}
	diff := new(uint256.Int)
	if sqrtPriceAfter.Gt(sqrtPriceBefore) {
		diff.Sub(sqrtPriceAfter, sqrtPriceBefore)
	} else {
		diff.Sub(sqrtPriceBefore, sqrtPriceAfter)
	}
	impact, err := clmm.MulDivRoundingUp(diff, bpsDenom, sqrtPriceBefore)
	if err != nil || !impact.IsUint64() || impact.Uint64() > 65535 {
		return 65535
	}
	return uint16(impact.Uint64())
}

func GetPriceImpactSeverity(priceImpactBps uint16) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// GetPriceImpactWarning returns a user-facing warning, empty below 1%.
func GetPriceImpactWarning(priceImpactBps uint16) string {
	switch GetPriceImpactSeverity(priceImpactBps) {
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - you may receive significantly less tokens"
	case SeverityExtreme:
		return "EXTREME price impact - this trade will severely impact the market price"
	default:
		return ""
	}
}
