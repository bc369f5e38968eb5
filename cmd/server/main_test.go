package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trailerstock/internal/config"
)

func validTestConfig() config.Config {
	return config.Config{
		Port:                     "8080",
		PromotionCacheTTL:        30 * time.Second,
		PromotionRefreshInterval: 15 * time.Second,
		CartIdleTimeout:          2 * time.Hour,
		ShopTimezone:             "America/Argentina/Buenos_Aires",
		LowStockLimit:            50,
		LogLevel:                 "info",
		LogFormat:                "json",
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validateConfig(validTestConfig()))
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"port not a number":     func(c *config.Config) { c.Port = "http" },
		"port out of range":     func(c *config.Config) { c.Port = "70000" },
		"zero cache ttl":        func(c *config.Config) { c.PromotionCacheTTL = 0 },
		"zero refresh interval": func(c *config.Config) { c.PromotionRefreshInterval = 0 },
		"negative idle timeout": func(c *config.Config) { c.CartIdleTimeout = -time.Minute },
		"zero low stock limit":  func(c *config.Config) { c.LowStockLimit = 0 },
		"unknown timezone":      func(c *config.Config) { c.ShopTimezone = "Mars/Olympus_Mons" },
		"unknown log format":    func(c *config.Config) { c.LogFormat = "xml" },
		"negative redis db":     func(c *config.Config) { c.RedisDB = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validTestConfig()
			mutate(&cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}
