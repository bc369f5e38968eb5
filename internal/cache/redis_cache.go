package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"trailerstock/internal/domain"
)

const (
	promotionsKey    = "trailerstock:promotions"
	suggestionPrefix = "trailerstock:suggestions:"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string, password string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetPromotions(ctx context.Context) ([]domain.Promotion, bool, error) {
	var promos []domain.Promotion
	ok, err := c.getJSON(ctx, promotionsKey, &promos)
	if err != nil || !ok {
		return nil, false, err
	}
	return promos, true, nil
}

func (c *RedisCache) SetPromotions(ctx context.Context, promos []domain.Promotion, ttl time.Duration) error {
	if promos == nil {
		promos = []domain.Promotion{}
	}
	return c.setJSON(ctx, promotionsKey, promos, ttl)
}

func (c *RedisCache) InvalidatePromotions(ctx context.Context) error {
	return c.client.Del(ctx, promotionsKey).Err()
}

func (c *RedisCache) GetSuggestions(ctx context.Context, key string) ([]domain.BundleSuggestion, bool, error) {
	var suggestions []domain.BundleSuggestion
	ok, err := c.getJSON(ctx, suggestionPrefix+key, &suggestions)
	if err != nil || !ok {
		return nil, false, err
	}
	return suggestions, true, nil
}

func (c *RedisCache) SetSuggestions(ctx context.Context, key string, value []domain.BundleSuggestion, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	return c.setJSON(ctx, suggestionPrefix+key, value, ttl)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
