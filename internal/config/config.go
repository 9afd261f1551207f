package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY    = "general-config"
	ROUTER_CONFIG_KEY     = "router-config"
	PROVIDER_CONFIG_KEY   = "provider-config"
	REDIS_CONFIG_KEY      = "redis-config"
	SETTLEMENT_CONFIG_KEY = "settlement-config"
)

var defaults = map[string]any{
	"HTTP_HOST": "localhost",
	"HTTP_PORT": "8080",
	"ENV":       DevEnv,
	"LOG_LEVEL": "INFO",

	"HTTP_RATE_PER_SECOND": 20,
	"HTTP_RATE_BURST":      40,

	"ROUTER_PARALLELISM":          8,
	"ROUTER_POOL_TIMEOUT":         "2s",
	"ROUTER_TICK_ARRAYS_PER_SIDE": 3,

	"PROVIDER_KIND":             ProviderHTTP,
	"PROVIDER_URL":              "",
	"PROVIDER_API_KEY":          "",
	"PROVIDER_FIXTURE_PATH":     "./data/pools.yaml",
	"PROVIDER_RATE_PER_SECOND":  50,
	"PROVIDER_BREAKER_FAILURES": 5,
	"PROVIDER_BREAKER_TIMEOUT":  "10s",
	"PROVIDER_CACHE_TTL":        "400ms",
	"PROVIDER_CACHE_SIZE":       4096,

	"REDIS_ENABLED":  false,
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"SLIPPAGE_DEFAULT_BPS":     500,
	"SETTLEMENT_MAX_DRIFT_BPS": 100,
}

// env reads settings from the process environment, falling back to defaults.
func env() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// LoadDotEnv loads the given .env files (".env" when none) into the process
// environment. Missing files are not an error; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
	// Per client IP.
	HTTPRatePerSecond float64
	HTTPRateBurst     int
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	v := env()
	gc.HTTPPort = v.GetString("HTTP_PORT")
	gc.HTTPHost = v.GetString("HTTP_HOST")
	gc.Env = v.GetString("ENV")
	gc.LogLevel = v.GetString("LOG_LEVEL")
	gc.HTTPRatePerSecond = v.GetFloat64("HTTP_RATE_PER_SECOND")
	gc.HTTPRateBurst = v.GetInt("HTTP_RATE_BURST")
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return fmt.Errorf("invalid server config: unknown ENV %q", gc.Env)
	}
	if gc.HTTPRatePerSecond <= 0 || gc.HTTPRateBurst <= 0 {
		return errors.New("invalid server config: http rate limit must be positive")
	}
	return nil
}

func (gc *GeneralConfig) Addr() string {
	return gc.HTTPHost + ":" + gc.HTTPPort
}

// Config is every section, loaded and validated.
type Config struct {
	General    GeneralConfig
	Router     RouterConfig
	Provider   ProviderConfig
	Redis      RedisConfig
	Settlement SettlementConfig
}

type section interface {
	Key() string
	Load() error
}

func LoadAll() (*Config, error) {
	c := &Config{}
	for _, s := range []section{&c.General, &c.Router, &c.Provider, &c.Redis, &c.Settlement} {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Key(), err)
		}
	}
	return c, nil
}
