package xid

import (
	"time"

	"github.com/google/uuid"
)

// SaleNumberLayout renders a sale time as day-month-year-hourminute.
const SaleNumberLayout = "02-01-2006-1504"

func NewCartID() string {
	return uuid.NewString()
}

// SaleNumber is the human-readable sale reference printed on receipts. It
// is not unique: two sales in the same minute share it.
func SaleNumber(at time.Time) string {
	return at.Format(SaleNumberLayout)
}
