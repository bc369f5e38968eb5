package suggest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"trailerstock/internal/cache"
	"trailerstock/internal/domain"
	"trailerstock/internal/pricing"
)

// Engine points a cashier at promotions the cart is close to unlocking.
type Engine struct {
	cache          cache.SuggestionCache
	cacheTTL       time.Duration
	maxSuggestions int
}

func NewEngine(cacheStore cache.SuggestionCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.Noop{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 20 * time.Second
	}

	return &Engine{
		cache:          cacheStore,
		cacheTTL:       cacheTTL,
		maxSuggestions: 3,
	}
}

// Suggest lists promotions of snap that the cart partially satisfies under
// its current payment method, most complete first.
func (e *Engine) Suggest(ctx context.Context, cart pricing.Cart, snap pricing.Snapshot) []domain.BundleSuggestion {
	if cart.IsEmpty() {
		return []domain.BundleSuggestion{}
	}

	cacheKey := buildCacheKey(cart, snap)
	if cached, ok, err := e.cache.GetSuggestions(ctx, cacheKey); err == nil && ok {
		return cached
	}

	suggestions := make([]domain.BundleSuggestion, 0, len(snap.Promotions))
	for _, promo := range snap.Promotions {
		if !promo.AllowsPaymentMethod(cart.PaymentMethod) {
			continue
		}

		required, covered := 0, 0
		missing := make([]domain.PromotionRequirement, 0, len(promo.Requirements))
		for _, req := range promo.Requirements {
			have := cart.QuantityOf(req.ProductID)
			required += req.RequiredQty
			covered += min(have, req.RequiredQty)
			if have < req.RequiredQty {
				missing = append(missing, domain.PromotionRequirement{
					ProductID:   req.ProductID,
					RequiredQty: req.RequiredQty - have,
				})
			}
		}
		if required == 0 || covered == 0 || len(missing) == 0 {
			continue
		}

		suggestions = append(suggestions, domain.BundleSuggestion{
			PromotionID:   promo.ID,
			PromotionName: promo.Name,
			Missing:       missing,
			Completion:    round2(float64(covered) / float64(required)),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Completion == suggestions[j].Completion {
			return suggestions[i].PromotionID < suggestions[j].PromotionID
		}
		return suggestions[i].Completion > suggestions[j].Completion
	})
	if len(suggestions) > e.maxSuggestions {
		suggestions = suggestions[:e.maxSuggestions]
	}

	_ = e.cache.SetSuggestions(ctx, cacheKey, suggestions, e.cacheTTL)
	return suggestions
}

func buildCacheKey(cart pricing.Cart, snap pricing.Snapshot) string {
	lines := make([]string, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, fmt.Sprintf("%d:%d", line.Product.ID, line.Qty))
	}
	sort.Strings(lines)

	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, fmt.Sprintf("s:%d", snap.TakenAt.UnixNano()), string(cart.PaymentMethod))
	parts = append(parts, lines...)

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
