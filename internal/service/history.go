package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	if filter.PaymentMethod != "" && !filter.PaymentMethod.Valid() {
		return nil, store.ErrInvalidRecord
	}
	if filter.Tier != "" && !filter.Tier.Valid() {
		return nil, store.ErrInvalidRecord
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, store.ErrInvalidRecord
	}
	return s.repo.ListSales(ctx, filter)
}

// VoidSale cancels a completed sale. Stock is returned unless the request
// explicitly opts out.
func (s *Service) VoidSale(ctx context.Context, id int64, req domain.VoidSaleRequest) (*domain.Sale, error) {
	restore := true
	if req.RestoreStock != nil {
		restore = *req.RestoreStock
	}

	sale, err := s.repo.VoidSale(ctx, id, restore, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("sale voided", zap.Int64("sale_id", id), zap.Bool("restock", restore))
	return sale, nil
}

// SalesSummary reports on ACTIVE sales in [from, to). Zero bounds default
// to the current shop day.
func (s *Service) SalesSummary(ctx context.Context, from time.Time, to time.Time) (domain.SalesSummary, error) {
	if from.IsZero() {
		from = domain.StartOfDay(s.now())
	}
	if to.IsZero() {
		to = domain.StartOfDay(from.In(s.opts.Location)).AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return domain.SalesSummary{}, store.ErrInvalidRecord
	}
	return s.repo.GetSalesSummary(ctx, from, to, 10)
}
