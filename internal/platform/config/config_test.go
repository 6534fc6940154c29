package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, DefaultDebounceInterval, cfg.SyncDebounceInterval)
	assert.Equal(t, DefaultBootstrapURL, cfg.BootstrapURL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("SYNC_DEBOUNCE_INTERVAL", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PUBLIC_BASE_URL", "https://sync.example.com/")
	t.Setenv("DEPLOYMENT_ID", "AKfy_123-x")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.Equal(t, 750*time.Millisecond, cfg.SyncDebounceInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://sync.example.com/macros/s/AKfy_123-x/exec", cfg.ExecURL())
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	t.Setenv("SYNC_DEBOUNCE_INTERVAL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, DefaultDebounceInterval, cfg.SyncDebounceInterval)
}
