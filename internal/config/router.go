package config

import (
	"errors"
	"time"
)

type RouterConfig struct {
	// Parallelism caps concurrent per-pool fetch and simulate tasks.
	Parallelism int
	PoolTimeout time.Duration
	// TickArraysPerSide is how many arrays on each side of the current one are fetched.
	TickArraysPerSide int
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	v := env()
	c.Parallelism = v.GetInt("ROUTER_PARALLELISM")
	c.PoolTimeout = v.GetDuration("ROUTER_POOL_TIMEOUT")
	c.TickArraysPerSide = v.GetInt("ROUTER_TICK_ARRAYS_PER_SIDE")
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.Parallelism <= 0 {
		return errors.New("invalid router config: parallelism must be positive")
	}
	if c.PoolTimeout <= 0 {
		return errors.New("invalid router config: pool timeout must be positive")
	}
	if c.TickArraysPerSide <= 0 || c.TickArraysPerSide > 16 {
		return errors.New("invalid router config: tick arrays per side must be in [1,16]")
	}
	return nil
}
