package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                     string        `env:"PORT" envDefault:"8080"`
	AllowedOrigin            string        `env:"ALLOWED_ORIGIN" envDefault:"http://127.0.0.1:3000"`
	DatabaseURL              string        `env:"DATABASE_URL"`
	RedisAddr                string        `env:"REDIS_ADDR"`
	RedisPassword            string        `env:"REDIS_PASSWORD"`
	RedisDB                  int           `env:"REDIS_DB" envDefault:"0"`
	PromotionCacheTTL        time.Duration `env:"PROMOTION_CACHE_TTL" envDefault:"30s"`
	PromotionRefreshInterval time.Duration `env:"PROMOTION_REFRESH_INTERVAL" envDefault:"15s"`
	CartIdleTimeout          time.Duration `env:"CART_IDLE_TIMEOUT" envDefault:"2h"`
	ShopTimezone             string        `env:"SHOP_TIMEZONE" envDefault:"America/Argentina/Buenos_Aires"`
	LowStockLimit            int           `env:"LOW_STOCK_LIMIT" envDefault:"50"`
	LogLevel                 string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat                string        `env:"LOG_FORMAT" envDefault:"json"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the shop time zone used for promotion validity days and
// sale numbers.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ShopTimezone)
}
