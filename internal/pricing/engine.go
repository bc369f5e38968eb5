package pricing

import (
	"github.com/shopspring/decimal"

	"trailerstock/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Apply runs ev against a copy of cart and reprices the result. The input
// cart is never modified.
func Apply(cart Cart, snap Snapshot, ev Event) Cart {
	next := cart.Clone()
	ev.apply(&next)
	return Recompute(next, snap)
}

// Recompute derives every line discount and the cart totals from scratch.
// Promotions are evaluated in snapshot order and a later promotion
// overwrites the discount an earlier one set on a shared line. Running it
// twice with the same snapshot yields the same cart.
func Recompute(cart Cart, snap Snapshot) Cart {
	out := cart.Clone()
	for i := range out.Lines {
		out.Lines[i].DiscountCents = 0
		out.Lines[i].Promotion = nil
	}

	for _, promo := range snap.Promotions {
		if !promo.AllowsPaymentMethod(out.PaymentMethod) {
			continue
		}
		if !requirementsMet(out, promo.Requirements) {
			continue
		}
		for _, req := range promo.Requirements {
			i := out.lineIndex(req.ProductID)
			if i < 0 {
				continue
			}
			out.Lines[i].DiscountCents = LineDiscount(promo, out.Lines[i])
			out.Lines[i].Promotion = &domain.PromotionRef{ID: promo.ID, Name: promo.Name}
		}
	}

	var subtotal, discount int64
	for _, line := range out.Lines {
		subtotal += line.SubtotalCents()
		discount += line.DiscountCents
	}
	out.SubtotalCents = subtotal
	out.DiscountCents = discount
	out.TotalCents = subtotal - discount
	if out.TotalCents < 0 {
		out.TotalCents = 0
	}
	return out
}

func requirementsMet(cart Cart, reqs []domain.PromotionRequirement) bool {
	for _, req := range reqs {
		if cart.QuantityOf(req.ProductID) < req.RequiredQty {
			return false
		}
	}
	return true
}

// LineDiscount is the discount promo grants a single line. Fixed amounts
// are flat per line regardless of quantity.
func LineDiscount(promo domain.Promotion, line Line) int64 {
	switch promo.Kind {
	case domain.DiscountPercentage:
		return decimal.NewFromInt(line.SubtotalCents()).
			Mul(decimal.NewFromFloat(promo.PercentOff)).
			Div(hundred).
			Round(0).
			IntPart()
	case domain.DiscountFixedAmount:
		return promo.AmountOffCents
	default:
		return 0
	}
}
