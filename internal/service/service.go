package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"trailerstock/internal/cache"
	"trailerstock/internal/pricing"
	"trailerstock/internal/store"
	"trailerstock/internal/suggest"
)

type Options struct {
	PromotionCacheTTL time.Duration
	CartIdleTimeout   time.Duration
	LowStockLimit     int
	Location          *time.Location
	// Now overrides the clock in tests.
	Now func() time.Time
}

type Service struct {
	repo       store.Repository
	promoCache cache.PromotionCache
	suggester  *suggest.Engine
	logger     *zap.Logger
	validate   *validator.Validate
	opts       Options

	// refreshMu serializes promotion reloads. Lock order: refreshMu, then a
	// session lock; snapMu and mu are leaf locks.
	refreshMu sync.Mutex
	snapMu    sync.RWMutex
	snapshot  pricing.Snapshot

	// mu guards the sessions map only. It is never acquired while a
	// session lock is held.
	mu       sync.RWMutex
	sessions map[string]*saleSession
}

func New(repo store.Repository, promoCache cache.PromotionCache, suggester *suggest.Engine, logger *zap.Logger, opts Options) *Service {
	if promoCache == nil {
		promoCache = cache.Noop{}
	}
	if suggester == nil {
		suggester = suggest.NewEngine(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PromotionCacheTTL <= 0 {
		opts.PromotionCacheTTL = 30 * time.Second
	}
	if opts.CartIdleTimeout <= 0 {
		opts.CartIdleTimeout = 2 * time.Hour
	}
	if opts.LowStockLimit < 1 {
		opts.LowStockLimit = 50
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:       repo,
		promoCache: promoCache,
		suggester:  suggester,
		logger:     logger.Named("service"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		opts:       opts,
		sessions:   make(map[string]*saleSession),
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// validateRequest runs struct tag validation and folds failures into
// store.ErrInvalidRecord so the HTTP layer maps them to 400.
func (s *Service) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", store.ErrInvalidRecord, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", store.ErrInvalidRecord, err)
	}
	return nil
}

// Location is the shop time zone used for day boundaries.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}
