package store

import (
	"context"
	"errors"
	"time"

	"trailerstock/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
	ErrConflict      = errors.New("conflict")
)

// Repository is the persistence contract shared by the memory and postgres
// stores. Deleted products and promotions never appear in list results.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	// DeleteCategory fails with ErrConflict while any product references it,
	// soft-deleted ones included.
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	// GetProductsByIDs includes soft-deleted products so callers can tell
	// them apart from unknown ids.
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	SoftDeleteProduct(ctx context.Context, id int64) error
	// AdjustStock adds delta to the product stock, clamping at zero.
	AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error)
	ListLowStock(ctx context.Context, limit int) ([]domain.Product, error)
	GetInventoryValuation(ctx context.Context) (domain.InventoryValuation, error)

	// ListPromotions returns non-deleted promotions ordered by id, with
	// requirements and payment methods loaded.
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error)
	// SavePromotion creates the promotion when ID is zero, otherwise
	// replaces it together with its requirement and payment method sets.
	SavePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error)
	SetPromotionActive(ctx context.Context, id int64, active bool) (*domain.Promotion, error)
	SoftDeletePromotion(ctx context.Context, id int64) error

	// CreateSale writes the sale, its lines and a clamped stock decrement
	// per line in one unit.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
	// VoidSale marks an ACTIVE sale VOIDED, optionally returning its units to
	// stock. Voiding a voided sale fails with ErrConflict.
	VoidSale(ctx context.Context, id int64, restoreStock bool, at time.Time) (*domain.Sale, error)
	GetSalesSummary(ctx context.Context, from time.Time, to time.Time, topN int) (domain.SalesSummary, error)
}
