package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trailerstock/internal/cache"
	"trailerstock/internal/config"
	"trailerstock/internal/httpapi"
	"trailerstock/internal/logging"
	"trailerstock/internal/service"
	"trailerstock/internal/store"
	"trailerstock/internal/store/memory"
	pgstore "trailerstock/internal/store/postgres"
	"trailerstock/internal/suggest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, _ := cfg.Location()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(startCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	var promoCache cache.PromotionCache = cache.Noop{}
	var suggestionCache cache.SuggestionCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(startCtx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			promoCache = redisCache
			suggestionCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	suggester := suggest.NewEngine(suggestionCache, cfg.PromotionCacheTTL)
	svc := service.New(repo, promoCache, suggester, logger, service.Options{
		PromotionCacheTTL: cfg.PromotionCacheTTL,
		CartIdleTimeout:   cfg.CartIdleTimeout,
		LowStockLimit:     cfg.LowStockLimit,
		Location:          loc,
	})
	if err := svc.RefreshPromotions(startCtx); err != nil {
		logger.Fatal("initial promotion load failed", zap.Error(err))
	}

	api := httpapi.New(svc, logger, cfg.AllowedOrigin)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.RunPromotionRefresher(ctx, cfg.PromotionRefreshInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("trailerstock backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server terminated with error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateConfig(cfg config.Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	if cfg.PromotionCacheTTL <= 0 {
		return errors.New("PROMOTION_CACHE_TTL must be positive")
	}
	if cfg.PromotionRefreshInterval <= 0 {
		return errors.New("PROMOTION_REFRESH_INTERVAL must be positive")
	}
	if cfg.CartIdleTimeout <= 0 {
		return errors.New("CART_IDLE_TIMEOUT must be positive")
	}
	if cfg.LowStockLimit < 1 {
		return errors.New("LOW_STOCK_LIMIT must be at least 1")
	}
	if cfg.RedisDB < 0 {
		return errors.New("REDIS_DB must not be negative")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("SHOP_TIMEZONE: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}
