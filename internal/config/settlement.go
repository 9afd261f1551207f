package config

import (
	"fmt"

	"github.com/hxuan190/clmm-router/internal/domain"
)

type SettlementConfig struct {
	// DefaultSlippageBps applies to accounts without a stored policy.
	DefaultSlippageBps uint16
	// MaxDriftBps is the sqrt price move tolerated before a snapshot is stale.
	MaxDriftBps uint32
}

func (c *SettlementConfig) Key() string {
	return SETTLEMENT_CONFIG_KEY
}

func (c *SettlementConfig) Load() error {
	v := env()
	c.DefaultSlippageBps = v.GetUint16("SLIPPAGE_DEFAULT_BPS")
	c.MaxDriftBps = v.GetUint32("SETTLEMENT_MAX_DRIFT_BPS")
	return c.Validate()
}

func (c *SettlementConfig) Validate() error {
	if err := (domain.SlippagePolicy{Bps: c.DefaultSlippageBps}).Validate(); err != nil {
		return fmt.Errorf("invalid settlement config: %w", err)
	}
	if c.MaxDriftBps > 10000 {
		return fmt.Errorf("invalid settlement config: max drift %d bps", c.MaxDriftBps)
	}
	return nil
}
