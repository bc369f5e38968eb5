package cache

import (
	"context"
	"time"

	"trailerstock/internal/domain"
)

// PromotionCache holds the last promotion list read from storage so that
// snapshot refreshes do not hit the database on every tick.
type PromotionCache interface {
	GetPromotions(ctx context.Context) ([]domain.Promotion, bool, error)
	SetPromotions(ctx context.Context, promos []domain.Promotion, ttl time.Duration) error
	InvalidatePromotions(ctx context.Context) error
}

type SuggestionCache interface {
	GetSuggestions(ctx context.Context, key string) ([]domain.BundleSuggestion, bool, error)
	SetSuggestions(ctx context.Context, key string, value []domain.BundleSuggestion, ttl time.Duration) error
}

type Noop struct{}

func (Noop) GetPromotions(_ context.Context) ([]domain.Promotion, bool, error) {
	return nil, false, nil
}

func (Noop) SetPromotions(_ context.Context, _ []domain.Promotion, _ time.Duration) error {
	return nil
}

func (Noop) InvalidatePromotions(_ context.Context) error {
	return nil
}

func (Noop) GetSuggestions(_ context.Context, _ string) ([]domain.BundleSuggestion, bool, error) {
	return nil, false, nil
}

func (Noop) SetSuggestions(_ context.Context, _ string, _ []domain.BundleSuggestion, _ time.Duration) error {
	return nil
}
