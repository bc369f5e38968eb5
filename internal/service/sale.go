package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"trailerstock/internal/domain"
	"trailerstock/internal/pricing"
	"trailerstock/internal/store"
	"trailerstock/internal/xid"
)

// saleSession owns one cart. Every mutation of the cart holds mu, so a
// session sees its events strictly in order.
type saleSession struct {
	mu        sync.Mutex
	id        string
	cart      pricing.Cart
	touchedAt time.Time
	closed    bool
}

type CartView struct {
	ID   string       `json:"id"`
	Cart pricing.Cart `json:"cart"`
}

func (s *Service) OpenCart(_ context.Context) CartView {
	snap := s.currentSnapshot()
	sess := &saleSession{
		id:        xid.NewCartID(),
		cart:      pricing.Recompute(pricing.NewCart(), snap),
		touchedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Debug("cart opened", zap.String("cart_id", sess.id))
	return CartView{ID: sess.id, Cart: sess.cart.Clone()}
}

func (s *Service) GetCart(_ context.Context, cartID string) (CartView, error) {
	sess, err := s.session(cartID)
	if err != nil {
		return CartView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return CartView{}, ErrCartNotFound
	}
	return CartView{ID: sess.id, Cart: sess.cart.Clone()}, nil
}

// DiscardCart drops an in-progress sale without touching storage.
func (s *Service) DiscardCart(_ context.Context, cartID string) error {
	sess, err := s.session(cartID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, cartID)
	s.mu.Unlock()
	return nil
}

func (s *Service) AddToCart(ctx context.Context, cartID string, req domain.CartItemRequest) (CartView, error) {
	if req.ProductID < 1 {
		return CartView{}, store.ErrInvalidRecord
	}
	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return CartView{}, err
	}
	return s.mutateCart(cartID, pricing.AddLine{Product: *product, Qty: req.Qty})
}

func (s *Service) SetCartQuantity(_ context.Context, cartID string, productID int64, qty int) (CartView, error) {
	return s.mutateCart(cartID, pricing.SetQuantity{ProductID: productID, Qty: qty})
}

func (s *Service) RemoveFromCart(_ context.Context, cartID string, productID int64) (CartView, error) {
	return s.mutateCart(cartID, pricing.RemoveLine{ProductID: productID})
}

func (s *Service) SetCartTier(_ context.Context, cartID string, tier domain.CustomerTier) (CartView, error) {
	if !tier.Valid() {
		return CartView{}, store.ErrInvalidRecord
	}
	return s.mutateCart(cartID, pricing.SetTier{Tier: tier})
}

func (s *Service) SetCartPaymentMethod(_ context.Context, cartID string, method domain.PaymentMethod) (CartView, error) {
	if !method.Valid() {
		return CartView{}, store.ErrInvalidRecord
	}
	return s.mutateCart(cartID, pricing.SetPaymentMethod{Method: method})
}

func (s *Service) SetCartNotes(_ context.Context, cartID string, notes string) (CartView, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > 500 {
		return CartView{}, store.ErrInvalidRecord
	}
	return s.mutateCart(cartID, pricing.SetNotes{Notes: notes})
}

func (s *Service) SetCartQuoteMode(_ context.Context, cartID string, enabled bool) (CartView, error) {
	return s.mutateCart(cartID, pricing.SetQuoteMode{Enabled: enabled})
}

func (s *Service) CartSuggestions(ctx context.Context, cartID string) ([]domain.BundleSuggestion, error) {
	view, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ctx, view.Cart, s.currentSnapshot()), nil
}

// FinalizeSale turns the cart into a persisted sale. On any error the cart
// is left exactly as it was. On success the cart is reset and the promotion
// snapshot reloaded.
func (s *Service) FinalizeSale(ctx context.Context, cartID string) (*domain.Sale, error) {
	sess, err := s.session(cartID)
	if err != nil {
		return nil, err
	}

	sale, err := s.finalizeLocked(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale finalized",
		zap.Int64("sale_id", sale.ID),
		zap.String("number", sale.Number),
		zap.Int64("total_cents", sale.TotalCents),
		zap.String("payment_method", string(sale.PaymentMethod)),
	)

	if err := s.RefreshPromotions(ctx); err != nil {
		s.logger.Warn("failed to reload promotions after checkout", zap.Error(err))
	}
	return sale, nil
}

func (s *Service) finalizeLocked(ctx context.Context, sess *saleSession) (*domain.Sale, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, ErrCartNotFound
	}
	cart := sess.cart
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if cart.QuoteMode {
		return nil, ErrQuoteMode
	}

	ids := make([]int64, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.Product.ID)
	}
	current, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	for _, line := range cart.Lines {
		available := 0
		if product, ok := current[line.Product.ID]; ok && !product.Deleted {
			available = product.Stock
		}
		if available < line.Qty {
			return nil, &InsufficientStockError{
				ProductID: line.Product.ID,
				Name:      line.Product.Name,
				Available: available,
				Requested: line.Qty,
			}
		}
	}

	at := s.now()
	sale := domain.Sale{
		Number:        xid.SaleNumber(at),
		CreatedAt:     at.UTC(),
		TotalCents:    cart.TotalCents,
		Tier:          cart.Tier,
		PaymentMethod: cart.PaymentMethod,
		Notes:         cart.Notes,
		Status:        domain.SaleStatusActive,
		Lines:         make([]domain.SaleLine, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		sale.Lines = append(sale.Lines, domain.SaleLine{
			ProductID:      line.Product.ID,
			ProductName:    line.Product.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.SubtotalCents(),
		})
	}

	saved, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("checkout interrupted", zap.String("cart_id", sess.id), zap.Error(err))
		}
		return nil, &PersistenceError{Err: err}
	}

	sess.cart = pricing.Apply(sess.cart, s.currentSnapshot(), pricing.Clear{})
	sess.touchedAt = s.now()
	return saved, nil
}

func (s *Service) session(cartID string) (*saleSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[cartID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return sess, nil
}

func (s *Service) mutateCart(cartID string, ev pricing.Event) (CartView, error) {
	sess, err := s.session(cartID)
	if err != nil {
		return CartView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return CartView{}, ErrCartNotFound
	}
	sess.cart = pricing.Apply(sess.cart, s.currentSnapshot(), ev)
	sess.touchedAt = s.now()
	return CartView{ID: sess.id, Cart: sess.cart.Clone()}, nil
}

// SweepIdleCarts discards carts untouched for longer than the idle timeout
// and returns how many were dropped.
func (s *Service) SweepIdleCarts() int {
	cutoff := s.now().Add(-s.opts.CartIdleTimeout)

	s.mu.RLock()
	candidates := make([]*saleSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	idle := make([]*saleSession, 0)
	for _, sess := range candidates {
		sess.mu.Lock()
		if !sess.closed && sess.touchedAt.Before(cutoff) {
			sess.closed = true
			idle = append(idle, sess)
		}
		sess.mu.Unlock()
	}
	if len(idle) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, sess := range idle {
		if s.sessions[sess.id] == sess {
			delete(s.sessions, sess.id)
		}
	}
	s.mu.Unlock()
	return len(idle)
}

func (s *Service) OpenCartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
