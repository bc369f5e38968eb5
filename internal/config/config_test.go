package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "REDIS_ADDR", "PROMOTION_CACHE_TTL", "CART_IDLE_TIMEOUT", "SHOP_TIMEZONE", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.PromotionCacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.CartIdleTimeout)
	assert.Equal(t, "json", cfg.LogFormat)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", loc.String())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PROMOTION_REFRESH_INTERVAL", "1m")
	t.Setenv("SHOP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.PromotionRefreshInterval)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("CART_IDLE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
