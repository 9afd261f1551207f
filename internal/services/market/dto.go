package market

import (
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// Wire and fixture shapes. Big numbers travel as decimal strings and are only
// trusted after conversion and domain validation.

type MintDTO struct {
	Address  string `json:"address" yaml:"address" validate:"required"`
	Decimals uint8  `json:"decimals" yaml:"decimals" validate:"lte=18"`
}

type PoolDTO struct {
	ID           string  `json:"id" yaml:"id" validate:"required"`
	MintA        MintDTO `json:"mintA" yaml:"mintA"`
	MintB        MintDTO `json:"mintB" yaml:"mintB"`
	VaultA       string  `json:"vaultA,omitempty" yaml:"vaultA,omitempty"`
	VaultB       string  `json:"vaultB,omitempty" yaml:"vaultB,omitempty"`
	CurrentTick  int32   `json:"currentTick" yaml:"currentTick" validate:"gte=-443636,lte=443636"`
	TickSpacing  uint16  `json:"tickSpacing" yaml:"tickSpacing" validate:"gt=0"`
	SqrtPriceX64 string  `json:"sqrtPriceX64" yaml:"sqrtPriceX64" validate:"required,number"`
	Liquidity    string  `json:"liquidity" yaml:"liquidity" validate:"required,number"`
	FeeRateBps   uint32  `json:"feeRateBps" yaml:"feeRateBps" validate:"lt=10000"`
	SwapEnabled  bool    `json:"swapEnabled" yaml:"swapEnabled"`
	Slot         uint64  `json:"slot,omitempty" yaml:"slot,omitempty"`
}

type TickDTO struct {
	Index          int32  `json:"index" yaml:"index"`
	LiquidityNet   string `json:"liquidityNet" yaml:"liquidityNet" validate:"required,numeric"`
	LiquidityGross string `json:"liquidityGross" yaml:"liquidityGross" validate:"required,number"`
	Initialized    bool   `json:"initialized" yaml:"initialized"`
}

type TickArrayDTO struct {
	StartTickIndex int32     `json:"startTickIndex" yaml:"startTickIndex"`
	Ticks          []TickDTO `json:"ticks" yaml:"ticks" validate:"dive"`
}

var validate = validator.New()

func parseU256(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidSnapshot, field, s, err)
	}
	return v, nil
}

// ToDomain validates the DTO and converts it into a snapshot the simulator can trust.
func (d *PoolDTO) ToDomain() (*domain.PoolSnapshot, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: pool %q: %v", domain.ErrInvalidSnapshot, d.ID, err)
	}
	sqrtPrice, err := parseU256("sqrtPriceX64", d.SqrtPriceX64)
	if err != nil {
		return nil, err
	}
	liquidity, err := parseU256("liquidity", d.Liquidity)
	if err != nil {
		return nil, err
	}
	p := &domain.PoolSnapshot{
		ID:           d.ID,
		MintA:        domain.Mint{Address: d.MintA.Address, Decimals: d.MintA.Decimals},
		MintB:        domain.Mint{Address: d.MintB.Address, Decimals: d.MintB.Decimals},
		VaultA:       d.VaultA,
		VaultB:       d.VaultB,
		CurrentTick:  d.CurrentTick,
		TickSpacing:  d.TickSpacing,
		SqrtPriceX64: sqrtPrice,
		Liquidity:    liquidity,
		FeeRateBps:   d.FeeRateBps,
		SwapEnabled:  d.SwapEnabled,
		Slot:         d.Slot,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *TickArrayDTO) ToDomain(tickSpacing uint16) (domain.TickArray, error) {
	if err := validate.Struct(d); err != nil {
		return domain.TickArray{}, fmt.Errorf("%w: tick array %d: %v", domain.ErrInvalidSnapshot, d.StartTickIndex, err)
	}
	ta := domain.TickArray{
		StartTickIndex: d.StartTickIndex,
		Ticks:          make([]domain.Tick, 0, len(d.Ticks)),
	}
	for _, t := range d.Ticks {
		net, ok := new(big.Int).SetString(t.LiquidityNet, 10)
		if !ok {
			return domain.TickArray{}, fmt.Errorf("%w: tick %d liquidityNet %q", domain.ErrInvalidSnapshot, t.Index, t.LiquidityNet)
		}
		gross, err := parseU256("liquidityGross", t.LiquidityGross)
		if err != nil {
			return domain.TickArray{}, err
		}
		ta.Ticks = append(ta.Ticks, domain.Tick{
			Index:          t.Index,
			LiquidityNet:   net,
			LiquidityGross: gross,
			Initialized:    t.Initialized,
		})
	}
	if err := ta.Validate(tickSpacing); err != nil {
		return domain.TickArray{}, err
	}
	return ta, nil
}

func PoolToDTO(p *domain.PoolSnapshot) PoolDTO {
	return PoolDTO{
		ID:           p.ID,
		MintA:        MintDTO{Address: p.MintA.Address, Decimals: p.MintA.Decimals},
		MintB:        MintDTO{Address: p.MintB.Address, Decimals: p.MintB.Decimals},
		VaultA:       p.VaultA,
		VaultB:       p.VaultB,
		CurrentTick:  p.CurrentTick,
		TickSpacing:  p.TickSpacing,
		SqrtPriceX64: decString(p.SqrtPriceX64),
		Liquidity:    decString(p.Liquidity),
		FeeRateBps:   p.FeeRateBps,
		SwapEnabled:  p.SwapEnabled,
		Slot:         p.Slot,
	}
}

func TickArrayToDTO(ta domain.TickArray) TickArrayDTO {
	out := TickArrayDTO{StartTickIndex: ta.StartTickIndex, Ticks: make([]TickDTO, len(ta.Ticks))}
	for i, t := range ta.Ticks {
		net := "0"
		if t.LiquidityNet != nil {
			net = t.LiquidityNet.String()
		}
		out.Ticks[i] = TickDTO{
			Index:          t.Index,
			LiquidityNet:   net,
			LiquidityGross: decString(t.LiquidityGross),
			Initialized:    t.Initialized,
		}
	}
	return out
}

func decString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
