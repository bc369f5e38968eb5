package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerstock/internal/domain"
	"trailerstock/internal/pricing"
)

func TestSuggestListsPartiallySatisfiedPromotions(t *testing.T) {
	hitch := domain.Product{ID: 1, Name: "Ball hitch", ListPriceCents: 10000}
	chain := domain.Product{ID: 3, Name: "Safety chain", ListPriceCents: 5500}

	cashOnly := domain.Promotion{
		ID: 1, Name: "Cash bundle", Kind: domain.DiscountFixedAmount, AmountOffCents: 1500, Active: true,
		Requirements:   []domain.PromotionRequirement{{ProductID: 1, RequiredQty: 1}, {ProductID: 3, RequiredQty: 1}},
		PaymentMethods: []domain.PaymentMethod{domain.PaymentCash},
	}
	bigBundle := domain.Promotion{
		ID: 2, Name: "Fleet pack", Kind: domain.DiscountPercentage, PercentOff: 5, Active: true,
		Requirements: []domain.PromotionRequirement{{ProductID: 1, RequiredQty: 4}},
	}
	cardOnly := domain.Promotion{
		ID: 3, Name: "Card hitch", Kind: domain.DiscountPercentage, PercentOff: 5, Active: true,
		Requirements:   []domain.PromotionRequirement{{ProductID: 1, RequiredQty: 1}, {ProductID: 9, RequiredQty: 1}},
		PaymentMethods: []domain.PaymentMethod{domain.PaymentCreditCard},
	}
	unrelated := domain.Promotion{
		ID: 4, Name: "Lamps", Kind: domain.DiscountPercentage, PercentOff: 5, Active: true,
		Requirements: []domain.PromotionRequirement{{ProductID: 7, RequiredQty: 2}},
	}
	snap := pricing.NewSnapshot([]domain.Promotion{cashOnly, bigBundle, cardOnly, unrelated}, time.Now())

	cart := pricing.Apply(pricing.NewCart(), snap, pricing.AddLine{Product: hitch, Qty: 1})

	engine := NewEngine(nil, 0)
	got := engine.Suggest(context.Background(), cart, snap)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].PromotionID)
	assert.Equal(t, 0.5, got[0].Completion)
	assert.Equal(t, []domain.PromotionRequirement{{ProductID: 3, RequiredQty: 1}}, got[0].Missing)
	assert.Equal(t, int64(2), got[1].PromotionID)
	assert.Equal(t, 0.25, got[1].Completion)
	assert.Equal(t, []domain.PromotionRequirement{{ProductID: 1, RequiredQty: 3}}, got[1].Missing)

	cart = pricing.Apply(cart, snap, pricing.AddLine{Product: chain, Qty: 1})
	got = engine.Suggest(context.Background(), cart, snap)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].PromotionID)
}

func TestSuggestEmptyCart(t *testing.T) {
	engine := NewEngine(nil, 0)
	assert.Empty(t, engine.Suggest(context.Background(), pricing.NewCart(), pricing.Snapshot{}))
}
