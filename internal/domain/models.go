package domain

import "time"

type CustomerTier string

const (
	TierList      CustomerTier = "LIST"
	TierWholesale CustomerTier = "WHOLESALE"
)

func (t CustomerTier) Valid() bool {
	return t == TierList || t == TierWholesale
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentTransfer   PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentDebitCard, PaymentCreditCard, PaymentTransfer:
		return true
	default:
		return false
	}
}

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "PERCENTAGE"
	DiscountFixedAmount DiscountKind = "FIXED_AMOUNT"
)

type SaleStatus string

const (
	SaleStatusActive SaleStatus = "ACTIVE"
	SaleStatusVoided SaleStatus = "VOIDED"
)

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Product struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description,omitempty"`
	CostCents           int64  `json:"cost_cents"`
	ListPriceCents      int64  `json:"list_price_cents"`
	WholesalePriceCents int64  `json:"wholesale_price_cents"`
	Stock               int    `json:"stock"`
	MinStock            int    `json:"min_stock"`
	CategoryID          int64  `json:"category_id"`
	Deleted             bool   `json:"deleted,omitempty"`
}

// PriceFor returns the unit price charged to a customer of the given tier.
// Anything other than WHOLESALE pays list price.
func (p Product) PriceFor(tier CustomerTier) int64 {
	if tier == TierWholesale {
		return p.WholesalePriceCents
	}
	return p.ListPriceCents
}

func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

type PromotionRequirement struct {
	ProductID   int64 `json:"product_id" validate:"gt=0"`
	RequiredQty int   `json:"required_qty" validate:"gte=1"`
}

type Promotion struct {
	ID             int64                  `json:"id"`
	Name           string                 `json:"name"`
	Kind           DiscountKind           `json:"kind"`
	PercentOff     float64                `json:"percent_off"`
	AmountOffCents int64                  `json:"amount_off_cents"`
	StartsAt       *time.Time             `json:"starts_at,omitempty"`
	EndsAt         *time.Time             `json:"ends_at,omitempty"`
	Active         bool                   `json:"active"`
	Deleted        bool                   `json:"deleted,omitempty"`
	Requirements   []PromotionRequirement `json:"requirements"`
	PaymentMethods []PaymentMethod        `json:"payment_methods"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ApplicableAt reports whether the promotion can be offered at now. The
// validity window has day granularity in now's location: it opens at the
// start of the start day and closes at the end of the end day. A missing
// bound leaves that side open.
func (p Promotion) ApplicableAt(now time.Time) bool {
	if !p.Active || p.Deleted {
		return false
	}
	loc := now.Location()
	if p.StartsAt != nil && now.Before(StartOfDay(p.StartsAt.In(loc))) {
		return false
	}
	if p.EndsAt != nil && !now.Before(StartOfDay(p.EndsAt.In(loc)).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// AllowsPaymentMethod is true when the promotion has no payment restriction
// or lists method explicitly.
func (p Promotion) AllowsPaymentMethod(method PaymentMethod) bool {
	if len(p.PaymentMethods) == 0 {
		return true
	}
	for _, allowed := range p.PaymentMethods {
		if allowed == method {
			return true
		}
	}
	return false
}

// PromotionRef identifies the promotion that produced a cart line discount.
type PromotionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SaleLine struct {
	ID             int64  `json:"id"`
	SaleID         int64  `json:"sale_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name,omitempty"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type Sale struct {
	ID            int64         `json:"id"`
	Number        string        `json:"number"`
	CreatedAt     time.Time     `json:"created_at"`
	TotalCents    int64         `json:"total_cents"`
	Tier          CustomerTier  `json:"tier"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Notes         string        `json:"notes,omitempty"`
	Status        SaleStatus    `json:"status"`
	VoidedAt      *time.Time    `json:"voided_at,omitempty"`
	Lines         []SaleLine    `json:"lines,omitempty"`
}

type ProductFilter struct {
	Query      string
	CategoryID int64
}

type SaleFilter struct {
	From          *time.Time
	To            *time.Time
	PaymentMethod PaymentMethod
	Tier          CustomerTier
	Limit         int
}

type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	QtySold   int    `json:"qty_sold"`
}

type SalesSummary struct {
	From                 time.Time    `json:"from"`
	To                   time.Time    `json:"to"`
	SalesCount           int64        `json:"sales_count"`
	TotalCents           int64        `json:"total_cents"`
	AverageTicketCents   int64        `json:"average_ticket_cents"`
	EstimatedProfitCents int64        `json:"estimated_profit_cents"`
	TopProducts          []TopProduct `json:"top_products"`
}

type InventoryValuation struct {
	Products       int   `json:"products"`
	Units          int   `json:"units"`
	CostCents      int64 `json:"cost_cents"`
	ListPriceCents int64 `json:"list_price_cents"`
	LowStock       int   `json:"low_stock"`
}

type BundleSuggestion struct {
	PromotionID   int64                  `json:"promotion_id"`
	PromotionName string                 `json:"promotion_name"`
	Missing       []PromotionRequirement `json:"missing"`
	Completion    float64                `json:"completion"`
}

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

type ProductRequest struct {
	Name                string `json:"name" validate:"required,max=120"`
	Description         string `json:"description,omitempty" validate:"max=500"`
	CostCents           int64  `json:"cost_cents" validate:"gte=0"`
	ListPriceCents      int64  `json:"list_price_cents" validate:"gte=0"`
	WholesalePriceCents int64  `json:"wholesale_price_cents" validate:"gte=0"`
	Stock               int    `json:"stock" validate:"gte=0"`
	MinStock            int    `json:"min_stock" validate:"gte=0"`
	CategoryID          int64  `json:"category_id" validate:"gt=0"`
}

type StockAdjustmentRequest struct {
	Delta int `json:"delta"`
}

type PromotionRequest struct {
	Name           string                 `json:"name" validate:"required,max=120"`
	Kind           DiscountKind           `json:"kind" validate:"oneof=PERCENTAGE FIXED_AMOUNT"`
	PercentOff     float64                `json:"percent_off" validate:"gte=0,lte=100"`
	AmountOffCents int64                  `json:"amount_off_cents" validate:"gte=0"`
	StartDate      string                 `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string                 `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active         *bool                  `json:"active,omitempty"`
	Requirements   []PromotionRequirement `json:"requirements" validate:"required,min=1,dive"`
	PaymentMethods []PaymentMethod        `json:"payment_methods" validate:"dive,oneof=CASH DEBIT_CARD CREDIT_CARD TRANSFER"`
}

type PromotionToggleRequest struct {
	Active bool `json:"active"`
}

type CartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type CartQuantityRequest struct {
	Qty int `json:"qty"`
}

type CartTierRequest struct {
	Tier CustomerTier `json:"tier"`
}

type CartPaymentMethodRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type CartNotesRequest struct {
	Notes string `json:"notes"`
}

type CartQuoteModeRequest struct {
	Enabled bool `json:"enabled"`
}

type VoidSaleRequest struct {
	RestoreStock *bool `json:"restore_stock,omitempty"`
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
