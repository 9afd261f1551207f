package config

import "errors"

// RedisConfig selects the slippage policy store. Disabled means in-memory.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

func (c *RedisConfig) Key() string {
	return REDIS_CONFIG_KEY
}

func (c *RedisConfig) Load() error {
	v := env()
	c.Enabled = v.GetBool("REDIS_ENABLED")
	c.Addr = v.GetString("REDIS_ADDR")
	c.Password = v.GetString("REDIS_PASSWORD")
	c.DB = v.GetInt("REDIS_DB")
	return c.Validate()
}

func (c *RedisConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return errors.New("invalid redis config: REDIS_ADDR is required")
	}
	if c.DB < 0 {
		return errors.New("invalid redis config: negative db")
	}
	return nil
}
