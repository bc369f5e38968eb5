package pricing

import (
	"time"

	"trailerstock/internal/domain"
)

// Snapshot is the set of promotions a cart is priced against. It only holds
// promotions that were applicable when it was taken, in the order they were
// loaded.
type Snapshot struct {
	Promotions []domain.Promotion `json:"promotions"`
	TakenAt    time.Time          `json:"taken_at"`
}

func NewSnapshot(promotions []domain.Promotion, now time.Time) Snapshot {
	applicable := make([]domain.Promotion, 0, len(promotions))
	for _, promo := range promotions {
		if promo.ApplicableAt(now) {
			applicable = append(applicable, promo)
		}
	}
	return Snapshot{Promotions: applicable, TakenAt: now}
}
