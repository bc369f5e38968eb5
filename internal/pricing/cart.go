package pricing

import "trailerstock/internal/domain"

// Line is one product in a cart. A cart holds at most one line per product.
type Line struct {
	Product        domain.Product       `json:"product"`
	Qty            int                  `json:"qty"`
	UnitPriceCents int64                `json:"unit_price_cents"`
	DiscountCents  int64                `json:"discount_cents"`
	Promotion      *domain.PromotionRef `json:"promotion,omitempty"`
}

func (l Line) SubtotalCents() int64 {
	return l.UnitPriceCents * int64(l.Qty)
}

// Cart is the in-progress sale. Subtotal, discount and total are derived by
// Recompute and must not be set by callers.
type Cart struct {
	Lines         []Line               `json:"lines"`
	Tier          domain.CustomerTier  `json:"tier"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes,omitempty"`
	QuoteMode     bool                 `json:"quote_mode"`
	SubtotalCents int64                `json:"subtotal_cents"`
	DiscountCents int64                `json:"discount_cents"`
	TotalCents    int64                `json:"total_cents"`
}

func NewCart() Cart {
	return Cart{
		Lines:         []Line{},
		Tier:          domain.TierList,
		PaymentMethod: domain.PaymentCash,
	}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// QuantityOf sums the quantity of productID across the cart.
func (c Cart) QuantityOf(productID int64) int {
	qty := 0
	for _, line := range c.Lines {
		if line.Product.ID == productID {
			qty += line.Qty
		}
	}
	return qty
}

func (c Cart) lineIndex(productID int64) int {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers never share line storage.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]Line, len(c.Lines))
	for i, line := range c.Lines {
		if line.Promotion != nil {
			ref := *line.Promotion
			line.Promotion = &ref
		}
		out.Lines[i] = line
	}
	return out
}
