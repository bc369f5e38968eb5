package pricing

import "trailerstock/internal/domain"

// Event is a cart mutation. Events only touch line membership, quantities,
// prices and metadata; discounts are always left to Recompute.
type Event interface {
	apply(c *Cart)
}

// AddLine adds Qty units of Product, merging into an existing line. A
// quantity below one counts as one.
type AddLine struct {
	Product domain.Product
	Qty     int
}

func (e AddLine) apply(c *Cart) {
	qty := e.Qty
	if qty < 1 {
		qty = 1
	}
	if i := c.lineIndex(e.Product.ID); i >= 0 {
		c.Lines[i].Qty += qty
		return
	}
	c.Lines = append(c.Lines, Line{
		Product:        e.Product,
		Qty:            qty,
		UnitPriceCents: e.Product.PriceFor(c.Tier),
	})
}

// SetQuantity replaces a line quantity; zero or less removes the line.
type SetQuantity struct {
	ProductID int64
	Qty       int
}

func (e SetQuantity) apply(c *Cart) {
	i := c.lineIndex(e.ProductID)
	if i < 0 {
		return
	}
	if e.Qty <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return
	}
	c.Lines[i].Qty = e.Qty
}

type RemoveLine struct {
	ProductID int64
}

func (e RemoveLine) apply(c *Cart) {
	if i := c.lineIndex(e.ProductID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// SetTier reprices every line from its product for the new tier.
type SetTier struct {
	Tier domain.CustomerTier
}

func (e SetTier) apply(c *Cart) {
	c.Tier = e.Tier
	for i := range c.Lines {
		c.Lines[i].UnitPriceCents = c.Lines[i].Product.PriceFor(e.Tier)
	}
}

type SetPaymentMethod struct {
	Method domain.PaymentMethod
}

func (e SetPaymentMethod) apply(c *Cart) {
	c.PaymentMethod = e.Method
}

type SetNotes struct {
	Notes string
}

func (e SetNotes) apply(c *Cart) {
	c.Notes = e.Notes
}

type SetQuoteMode struct {
	Enabled bool
}

func (e SetQuoteMode) apply(c *Cart) {
	c.QuoteMode = e.Enabled
}

// Clear empties the cart and restores the default tier and payment method.
type Clear struct{}

func (Clear) apply(c *Cart) {
	*c = NewCart()
}
