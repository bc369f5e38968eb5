package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"trailerstock/internal/domain"
	"trailerstock/internal/pricing"
	"trailerstock/internal/store"
)

func (s *Service) currentSnapshot() pricing.Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

func (s *Service) PromotionSnapshot() pricing.Snapshot {
	return s.currentSnapshot()
}

// RefreshPromotions rebuilds the shared snapshot and reprices every open
// cart against it.
func (s *Service) RefreshPromotions(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

// refreshLocked requires refreshMu. Loads, cache writes and installs are
// serialized by it, so a later install always carries a later read.
func (s *Service) refreshLocked(ctx context.Context) error {
	promos, err := s.loadPromotions(ctx)
	if err != nil {
		return err
	}
	snap := pricing.NewSnapshot(promos, s.now())

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.mu.RLock()
	sessions := make([]*saleSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		if !sess.closed {
			sess.cart = pricing.Recompute(sess.cart, s.currentSnapshot())
		}
		sess.mu.Unlock()
	}
	return nil
}

func (s *Service) loadPromotions(ctx context.Context) ([]domain.Promotion, error) {
	cached, ok, err := s.promoCache.GetPromotions(ctx)
	if err != nil {
		s.logger.Warn("promotion cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	if err := s.promoCache.SetPromotions(ctx, promos, s.opts.PromotionCacheTTL); err != nil {
		s.logger.Warn("promotion cache write failed", zap.Error(err))
	}
	return promos, nil
}

// RunPromotionRefresher periodically reloads promotions, so validity windows
// roll over at day boundaries, and discards idle carts. It returns when ctx
// is done.
func (s *Service) RunPromotionRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshPromotions(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("promotion refresh failed", zap.Error(err))
			}
			if dropped := s.SweepIdleCarts(); dropped > 0 {
				s.logger.Info("idle carts discarded", zap.Int("count", dropped))
			}
		}
	}
}

// promotionsChanged drops the cached list and reprices open carts right
// away, so a deactivated promotion stops discounting immediately.
func (s *Service) promotionsChanged(ctx context.Context) {
	// An in-flight refresh may have read the list before the write; waiting
	// for it keeps its cache write from landing after the invalidation.
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if err := s.promoCache.InvalidatePromotions(ctx); err != nil {
		s.logger.Warn("promotion cache invalidation failed", zap.Error(err))
	}
	if err := s.refreshLocked(ctx); err != nil {
		s.logger.Warn("promotion refresh failed", zap.Error(err))
	}
}

func (s *Service) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.repo.ListPromotions(ctx)
}

func (s *Service) GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error) {
	return s.repo.GetPromotion(ctx, id)
}

func (s *Service) CreatePromotion(ctx context.Context, req domain.PromotionRequest) (*domain.Promotion, error) {
	promo, err := s.promotionFromRequest(req)
	if err != nil {
		return nil, err
	}
	if req.Active == nil {
		promo.Active = true
	}

	saved, err := s.repo.SavePromotion(ctx, promo)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promotion created", zap.Int64("promotion_id", saved.ID), zap.String("name", saved.Name))
	s.promotionsChanged(ctx)
	return saved, nil
}

func (s *Service) UpdatePromotion(ctx context.Context, id int64, req domain.PromotionRequest) (*domain.Promotion, error) {
	existing, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}
	promo, err := s.promotionFromRequest(req)
	if err != nil {
		return nil, err
	}
	promo.ID = id
	if req.Active == nil {
		promo.Active = existing.Active
	}

	saved, err := s.repo.SavePromotion(ctx, promo)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promotion updated", zap.Int64("promotion_id", saved.ID))
	s.promotionsChanged(ctx)
	return saved, nil
}

func (s *Service) SetPromotionActive(ctx context.Context, id int64, active bool) (*domain.Promotion, error) {
	promo, err := s.repo.SetPromotionActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info("promotion toggled", zap.Int64("promotion_id", id), zap.Bool("active", active))
	s.promotionsChanged(ctx)
	return promo, nil
}

func (s *Service) DeletePromotion(ctx context.Context, id int64) error {
	if err := s.repo.SoftDeletePromotion(ctx, id); err != nil {
		return err
	}
	s.logger.Info("promotion deleted", zap.Int64("promotion_id", id))
	s.promotionsChanged(ctx)
	return nil
}

func (s *Service) promotionFromRequest(req domain.PromotionRequest) (domain.Promotion, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateRequest(req); err != nil {
		return domain.Promotion{}, err
	}
	switch req.Kind {
	case domain.DiscountPercentage:
		if req.PercentOff <= 0 {
			return domain.Promotion{}, fmt.Errorf("%w: percent_off must be positive", store.ErrInvalidRecord)
		}
	case domain.DiscountFixedAmount:
		if req.AmountOffCents <= 0 {
			return domain.Promotion{}, fmt.Errorf("%w: amount_off_cents must be positive", store.ErrInvalidRecord)
		}
	}

	seen := make(map[int64]struct{}, len(req.Requirements))
	for _, r := range req.Requirements {
		if _, dup := seen[r.ProductID]; dup {
			return domain.Promotion{}, fmt.Errorf("%w: product %d required twice", store.ErrInvalidRecord, r.ProductID)
		}
		seen[r.ProductID] = struct{}{}
	}

	promo := domain.Promotion{
		Name:           req.Name,
		Kind:           req.Kind,
		PercentOff:     req.PercentOff,
		AmountOffCents: req.AmountOffCents,
		Requirements:   slices.Clone(req.Requirements),
		PaymentMethods: make([]domain.PaymentMethod, 0, len(req.PaymentMethods)),
	}
	for _, method := range req.PaymentMethods {
		if !slices.Contains(promo.PaymentMethods, method) {
			promo.PaymentMethods = append(promo.PaymentMethods, method)
		}
	}
	if req.Active != nil {
		promo.Active = *req.Active
	}

	var err error
	if promo.StartsAt, err = s.parseDay(req.StartDate); err != nil {
		return domain.Promotion{}, err
	}
	if promo.EndsAt, err = s.parseDay(req.EndDate); err != nil {
		return domain.Promotion{}, err
	}
	if promo.StartsAt != nil && promo.EndsAt != nil && promo.EndsAt.Before(*promo.StartsAt) {
		return domain.Promotion{}, fmt.Errorf("%w: end_date before start_date", store.ErrInvalidRecord)
	}
	return promo, nil
}

func (s *Service) parseDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidRecord, err)
	}
	return &day, nil
}
