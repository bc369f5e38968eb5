package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerstock/internal/domain"
)

var (
	hitch = domain.Product{ID: 1, Name: "Ball hitch 50mm", ListPriceCents: 10000, WholesalePriceCents: 8000, Stock: 10}
	plug  = domain.Product{ID: 2, Name: "7-pin plug", ListPriceCents: 2500, WholesalePriceCents: 2000, Stock: 10}
	lamp  = domain.Product{ID: 3, Name: "LED tail lamp", ListPriceCents: 4000, WholesalePriceCents: 3000, Stock: 10}
)

func percentPromo(id int64, pct float64, reqs ...domain.PromotionRequirement) domain.Promotion {
	return domain.Promotion{ID: id, Name: "promo", Kind: domain.DiscountPercentage, PercentOff: pct, Active: true, Requirements: reqs}
}

func fixedPromo(id int64, amount int64, reqs ...domain.PromotionRequirement) domain.Promotion {
	return domain.Promotion{ID: id, Name: "promo", Kind: domain.DiscountFixedAmount, AmountOffCents: amount, Active: true, Requirements: reqs}
}

func snapshotOf(promos ...domain.Promotion) Snapshot {
	return NewSnapshot(promos, time.Now())
}

func applyAll(snap Snapshot, events ...Event) Cart {
	cart := Recompute(NewCart(), snap)
	for _, ev := range events {
		cart = Apply(cart, snap, ev)
	}
	return cart
}

func TestSimplePercentagePromotion(t *testing.T) {
	snap := snapshotOf(percentPromo(1, 10, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 2}))

	cart := applyAll(snap, AddLine{Product: hitch, Qty: 3})

	assert.Equal(t, int64(30000), cart.SubtotalCents)
	assert.Equal(t, int64(3000), cart.DiscountCents)
	assert.Equal(t, int64(27000), cart.TotalCents)
	require.NotNil(t, cart.Lines[0].Promotion)
	assert.Equal(t, int64(1), cart.Lines[0].Promotion.ID)
}

func TestAddLineMergesAndDefaultsQuantity(t *testing.T) {
	cart := applyAll(Snapshot{},
		AddLine{Product: hitch, Qty: 0},
		AddLine{Product: plug, Qty: 2},
		AddLine{Product: hitch, Qty: 2},
	)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, hitch.ID, cart.Lines[0].Product.ID)
	assert.Equal(t, 3, cart.Lines[0].Qty)
	assert.Equal(t, 2, cart.Lines[1].Qty)
	assert.Equal(t, int64(3*10000+2*2500), cart.TotalCents)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	cart := applyAll(Snapshot{},
		AddLine{Product: hitch, Qty: 1},
		AddLine{Product: plug, Qty: 1},
		SetQuantity{ProductID: hitch.ID, Qty: 0},
	)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, plug.ID, cart.Lines[0].Product.ID)

	cart = Apply(cart, Snapshot{}, SetQuantity{ProductID: plug.ID, Qty: 4})
	assert.Equal(t, 4, cart.Lines[0].Qty)

	cart = Apply(cart, Snapshot{}, RemoveLine{ProductID: plug.ID})
	assert.True(t, cart.IsEmpty())
	assert.Zero(t, cart.TotalCents)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	snap := snapshotOf(
		percentPromo(1, 12.5, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1}),
		fixedPromo(2, 700, domain.PromotionRequirement{ProductID: plug.ID, RequiredQty: 2}),
	)
	cart := applyAll(snap, AddLine{Product: hitch, Qty: 3}, AddLine{Product: plug, Qty: 2})

	once := Recompute(cart, snap)
	twice := Recompute(once, snap)

	assert.Equal(t, once, twice)
}

func TestTierRoundTripRestoresListPrices(t *testing.T) {
	cart := applyAll(Snapshot{}, AddLine{Product: hitch, Qty: 1}, AddLine{Product: lamp, Qty: 2})

	wholesale := Apply(cart, Snapshot{}, SetTier{Tier: domain.TierWholesale})
	assert.Equal(t, hitch.WholesalePriceCents, wholesale.Lines[0].UnitPriceCents)
	assert.Equal(t, lamp.WholesalePriceCents, wholesale.Lines[1].UnitPriceCents)
	assert.Equal(t, 2, wholesale.Lines[1].Qty)

	back := Apply(wholesale, Snapshot{}, SetTier{Tier: domain.TierList})
	assert.Equal(t, hitch.ListPriceCents, back.Lines[0].UnitPriceCents)
	assert.Equal(t, lamp.ListPriceCents, back.Lines[1].UnitPriceCents)
	assert.Equal(t, cart.TotalCents, back.TotalCents)
}

func TestTotalNeverNegative(t *testing.T) {
	snap := snapshotOf(fixedPromo(1, 50000, domain.PromotionRequirement{ProductID: plug.ID, RequiredQty: 1}))

	cart := applyAll(snap, AddLine{Product: plug, Qty: 1})

	assert.Equal(t, int64(50000), cart.DiscountCents)
	assert.Equal(t, int64(0), cart.TotalCents)
}

func TestBundleRequiresEveryProduct(t *testing.T) {
	snap := snapshotOf(percentPromo(1, 10,
		domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 2},
		domain.PromotionRequirement{ProductID: plug.ID, RequiredQty: 1},
	))

	cart := applyAll(snap, AddLine{Product: hitch, Qty: 2})
	assert.Zero(t, cart.DiscountCents)

	cart = Apply(cart, snap, AddLine{Product: plug, Qty: 1})
	assert.Equal(t, int64(2000), cart.Lines[0].DiscountCents)
	assert.Equal(t, int64(250), cart.Lines[1].DiscountCents)
	assert.Equal(t, int64(2250), cart.DiscountCents)
}

func TestPaymentMethodGating(t *testing.T) {
	promo := percentPromo(1, 10, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1})
	promo.PaymentMethods = []domain.PaymentMethod{domain.PaymentCreditCard}
	snap := snapshotOf(promo)

	cart := applyAll(snap, AddLine{Product: hitch, Qty: 1})
	assert.Zero(t, cart.DiscountCents)

	cart = Apply(cart, snap, SetPaymentMethod{Method: domain.PaymentCreditCard})
	assert.Equal(t, int64(1000), cart.DiscountCents)

	cart = Apply(cart, snap, SetPaymentMethod{Method: domain.PaymentCash})
	assert.Zero(t, cart.DiscountCents)
	assert.Nil(t, cart.Lines[0].Promotion)
}

func TestFixedAmountIsNotScaledByQuantity(t *testing.T) {
	snap := snapshotOf(fixedPromo(1, 50000, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1}))

	cart := applyAll(snap, AddLine{Product: hitch, Qty: 5})

	assert.Equal(t, int64(50000), cart.Lines[0].DiscountCents)
	assert.Equal(t, int64(0), cart.TotalCents)
}

func TestLaterPromotionOverwritesSharedLine(t *testing.T) {
	snap := snapshotOf(
		percentPromo(1, 10, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1}),
		fixedPromo(2, 500, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1}),
	)

	cart := applyAll(snap, AddLine{Product: hitch, Qty: 2})

	assert.Equal(t, int64(500), cart.Lines[0].DiscountCents)
	assert.Equal(t, int64(2), cart.Lines[0].Promotion.ID)
}

func TestUnknownDiscountKindGrantsNothing(t *testing.T) {
	promo := percentPromo(1, 50, domain.PromotionRequirement{ProductID: hitch.ID, RequiredQty: 1})
	promo.Kind = "BOGUS"

	cart := applyAll(snapshotOf(promo), AddLine{Product: hitch, Qty: 1})

	assert.Zero(t, cart.DiscountCents)
	require.NotNil(t, cart.Lines[0].Promotion)
}

func TestPercentageRoundsToNearestCent(t *testing.T) {
	promo := percentPromo(1, 15, domain.PromotionRequirement{ProductID: plug.ID, RequiredQty: 1})
	line := Line{Product: plug, Qty: 1, UnitPriceCents: 333}

	assert.Equal(t, int64(50), LineDiscount(promo, line))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	cart := applyAll(Snapshot{}, AddLine{Product: hitch, Qty: 1})

	_ = Apply(cart, Snapshot{}, SetQuantity{ProductID: hitch.ID, Qty: 9})

	assert.Equal(t, 1, cart.Lines[0].Qty)
}

func TestClearResetsCart(t *testing.T) {
	cart := applyAll(Snapshot{},
		AddLine{Product: hitch, Qty: 1},
		SetTier{Tier: domain.TierWholesale},
		SetPaymentMethod{Method: domain.PaymentTransfer},
		SetNotes{Notes: "pick up friday"},
		SetQuoteMode{Enabled: true},
		Clear{},
	)

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, domain.TierList, cart.Tier)
	assert.Equal(t, domain.PaymentCash, cart.PaymentMethod)
	assert.Empty(t, cart.Notes)
	assert.False(t, cart.QuoteMode)
}
