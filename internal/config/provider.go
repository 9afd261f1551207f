package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	ProviderHTTP    = "http"
	ProviderFixture = "fixture"
)

type ProviderConfig struct {
	Kind        string
	URL         string
	APIKey      string
	FixturePath string

	RatePerSecond   int
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	CacheTTL  time.Duration
	CacheSize int
}

func (c *ProviderConfig) Key() string {
	return PROVIDER_CONFIG_KEY
}

func (c *ProviderConfig) Load() error {
	v := env()
	c.Kind = v.GetString("PROVIDER_KIND")
	c.URL = v.GetString("PROVIDER_URL")
	c.APIKey = v.GetString("PROVIDER_API_KEY")
	c.FixturePath = v.GetString("PROVIDER_FIXTURE_PATH")
	c.RatePerSecond = v.GetInt("PROVIDER_RATE_PER_SECOND")
	c.BreakerFailures = v.GetUint32("PROVIDER_BREAKER_FAILURES")
	c.BreakerTimeout = v.GetDuration("PROVIDER_BREAKER_TIMEOUT")
	c.CacheTTL = v.GetDuration("PROVIDER_CACHE_TTL")
	c.CacheSize = v.GetInt("PROVIDER_CACHE_SIZE")
	return c.Validate()
}

func (c *ProviderConfig) Validate() error {
	switch c.Kind {
	case ProviderHTTP:
		if c.URL == "" {
			return errors.New("invalid provider config: PROVIDER_URL is required for the http provider")
		}
		if c.RatePerSecond <= 0 || c.BreakerFailures == 0 || c.BreakerTimeout <= 0 {
			return errors.New("invalid provider config: rate limit and breaker settings must be positive")
		}
	case ProviderFixture:
		if c.FixturePath == "" {
			return errors.New("invalid provider config: PROVIDER_FIXTURE_PATH is required for the fixture provider")
		}
	default:
		return fmt.Errorf("invalid provider config: unknown kind %q", c.Kind)
	}
	if c.CacheTTL < 0 || c.CacheSize < 0 {
		return errors.New("invalid provider config: cache settings must not be negative")
	}
	return nil
}
