package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func TestLoadAllDefaults(t *testing.T) {
	t.Setenv("PROVIDER_URL", "http://index.local")

	cfg, err := LoadAll()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.General.Addr())
	assert.Equal(t, DevEnv, cfg.General.Env)
	assert.Equal(t, 8, cfg.Router.Parallelism)
	assert.Equal(t, 2*time.Second, cfg.Router.PoolTimeout)
	assert.Equal(t, 3, cfg.Router.TickArraysPerSide)
	assert.Equal(t, ProviderHTTP, cfg.Provider.Kind)
	assert.Equal(t, 400*time.Millisecond, cfg.Provider.CacheTTL)
	assert.Equal(t, 4096, cfg.Provider.CacheSize)
	assert.Equal(t, uint32(5), cfg.Provider.BreakerFailures)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, uint16(500), cfg.Settlement.DefaultSlippageBps)
	assert.Equal(t, uint32(100), cfg.Settlement.MaxDriftBps)
}

func TestLoadAllFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("ROUTER_PARALLELISM", "3")
	t.Setenv("ROUTER_POOL_TIMEOUT", "750ms")
	t.Setenv("PROVIDER_KIND", "fixture")
	t.Setenv("PROVIDER_FIXTURE_PATH", "/tmp/pools.yaml")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SLIPPAGE_DEFAULT_BPS", "0")

	cfg, err := LoadAll()
	require.NoError(t, err)
	assert.Equal(t, ProdEnv, cfg.General.Env)
	assert.Equal(t, 3, cfg.Router.Parallelism)
	assert.Equal(t, 750*time.Millisecond, cfg.Router.PoolTimeout)
	assert.Equal(t, "/tmp/pools.yaml", cfg.Provider.FixturePath)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, uint16(0), cfg.Settlement.DefaultSlippageBps)
}

func TestLoadAllRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"http provider without url", map[string]string{}},
		{"unknown provider", map[string]string{"PROVIDER_KIND": "grpc"}},
		{"zero parallelism", map[string]string{"PROVIDER_URL": "http://x", "ROUTER_PARALLELISM": "0"}},
		{"unknown env", map[string]string{"PROVIDER_URL": "http://x", "ENV": "qa"}},
		{"wide default slippage", map[string]string{"PROVIDER_URL": "http://x", "SLIPPAGE_DEFAULT_BPS": "501"}},
		{"negative redis db", map[string]string{"PROVIDER_URL": "http://x", "REDIS_DB": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadAll()
			assert.Error(t, err)
		})
	}
}

func TestSettlementConfigWrapsSlippageError(t *testing.T) {
	c := SettlementConfig{DefaultSlippageBps: 900}
	assert.ErrorIs(t, c.Validate(), domain.ErrInvalidSlippageConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLMM_ROUTER_DOTENV_PROBE=42\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CLMM_ROUTER_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "42", os.Getenv("CLMM_ROUTER_DOTENV_PROBE"))
}
