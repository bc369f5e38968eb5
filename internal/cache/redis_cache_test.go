package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerstock/internal/domain"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() {
		_ = c.Close()
	})
	require.NoError(t, c.Ping(context.Background()))
	return c, mr
}

func TestRedisPromotionRoundTrip(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	_, ok, err := c.GetPromotions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	promos := []domain.Promotion{{
		ID:             1,
		Name:           "Lighting kit 10%",
		Kind:           domain.DiscountPercentage,
		PercentOff:     10,
		Active:         true,
		Requirements:   []domain.PromotionRequirement{{ProductID: 4, RequiredQty: 2}},
		PaymentMethods: []domain.PaymentMethod{domain.PaymentCash},
	}}
	require.NoError(t, c.SetPromotions(ctx, promos, 30*time.Second))

	got, ok, err := c.GetPromotions(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, promos[0].Requirements, got[0].Requirements)
	assert.Equal(t, promos[0].PaymentMethods, got[0].PaymentMethods)

	mr.FastForward(31 * time.Second)
	_, ok, err = c.GetPromotions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisInvalidatePromotions(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPromotions(ctx, nil, time.Minute))
	got, ok, err := c.GetPromotions(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got)

	require.NoError(t, c.InvalidatePromotions(ctx))
	_, ok, err = c.GetPromotions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSuggestionsByKey(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	value := []domain.BundleSuggestion{{PromotionID: 2, PromotionName: "Hitch cash deal", Completion: 0.5}}
	require.NoError(t, c.SetSuggestions(ctx, "abc", value, time.Minute))

	got, ok, err := c.GetSuggestions(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value[0].PromotionID, got[0].PromotionID)

	_, ok, err = c.GetSuggestions(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}
