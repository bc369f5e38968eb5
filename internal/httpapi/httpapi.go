package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"trailerstock/internal/service"
	"trailerstock/internal/store"
)

const msgSaleNotSaved = "sale could not be saved, please retry"

type API struct {
	service       *service.Service
	logger        *zap.Logger
	allowedOrigin string
}

func New(svc *service.Service, logger *zap.Logger, allowedOrigin string) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		service:       svc,
		logger:        logger.Named("http"),
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.withMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(a.logger, w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMethodNotAllowed(a.logger, w)
	})

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/categories", func(c chi.Router) {
			c.Get("/", a.handleListCategories)
			c.Post("/", a.handleCreateCategory)
			c.Put("/{id}", a.handleUpdateCategory)
			c.Delete("/{id}", a.handleDeleteCategory)
		})

		v.Route("/products", func(p chi.Router) {
			p.Get("/", a.handleListProducts)
			p.Post("/", a.handleCreateProduct)
			p.Get("/low-stock", a.handleLowStock)
			p.Get("/valuation", a.handleValuation)
			p.Route("/{id}", func(item chi.Router) {
				item.Get("/", a.handleGetProduct)
				item.Put("/", a.handleUpdateProduct)
				item.Delete("/", a.handleDeleteProduct)
				item.Post("/stock", a.handleAdjustStock)
			})
		})

		v.Route("/promotions", func(p chi.Router) {
			p.Get("/", a.handleListPromotions)
			p.Post("/", a.handleCreatePromotion)
			p.Route("/{id}", func(item chi.Router) {
				item.Get("/", a.handleGetPromotion)
				item.Put("/", a.handleUpdatePromotion)
				item.Delete("/", a.handleDeletePromotion)
				item.Post("/toggle", a.handleTogglePromotion)
			})
		})

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", a.handleOpenCart)
			c.Route("/{id}", func(cart chi.Router) {
				cart.Get("/", a.handleGetCart)
				cart.Delete("/", a.handleDiscardCart)
				cart.Post("/items", a.handleAddCartItem)
				cart.Put("/items/{productID}", a.handleSetCartQuantity)
				cart.Delete("/items/{productID}", a.handleRemoveCartItem)
				cart.Put("/tier", a.handleSetCartTier)
				cart.Put("/payment-method", a.handleSetCartPaymentMethod)
				cart.Put("/notes", a.handleSetCartNotes)
				cart.Put("/quote-mode", a.handleSetCartQuoteMode)
				cart.Get("/suggestions", a.handleCartSuggestions)
				cart.Post("/checkout", a.handleCheckout)
			})
		})

		v.Route("/sales", func(s chi.Router) {
			s.Get("/", a.handleListSales)
			s.Get("/{id}", a.handleGetSale)
			s.Post("/{id}/void", a.handleVoidSale)
		})

		v.Get("/reports/summary", a.handleSalesSummary)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"at":         time.Now().UTC().Format(time.RFC3339),
		"open_carts": a.service.OpenCartCount(),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(startedAt)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// writeServiceError maps service and store errors onto HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var stockErr *service.InsufficientStockError
	var persistErr *service.PersistenceError

	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"name":       stockErr.Name,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.As(err, &persistErr):
		a.logger.Error("persistence failure", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": msgSaleNotSaved,
		})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrCartNotFound):
		writeError(a.logger, w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInvalidRecord), errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrQuoteMode):
		writeError(a.logger, w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrConflict):
		writeError(a.logger, w, http.StatusConflict, err)
	default:
		writeError(a.logger, w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func writeMethodNotAllowed(logger *zap.Logger, w http.ResponseWriter) {
	writeError(logger, w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause goes to the log only.
	msg := err.Error()
	if status >= 500 {
		logger.Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
