package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	return s.repo.CreateCategory(ctx, domain.Category{Name: req.Name, Color: req.Color})
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req domain.CategoryRequest) (*domain.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	return s.repo.UpdateCategory(ctx, domain.Category{ID: id, Name: req.Name, Color: req.Color})
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	product, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.Int64("product_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// UpdateProduct does not reprice open carts: lines keep the product data
// they were added with until re-added.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductRequest) (*domain.Product, error) {
	product, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id
	return s.repo.UpdateProduct(ctx, product)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *Service) AdjustStock(ctx context.Context, id int64, req domain.StockAdjustmentRequest) (*domain.Product, error) {
	if req.Delta == 0 {
		return nil, store.ErrInvalidRecord
	}
	product, err := s.repo.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return nil, err
	}
	if product.IsLowStock() {
		s.logger.Info("product at or below minimum stock",
			zap.Int64("product_id", product.ID),
			zap.Int("stock", product.Stock),
			zap.Int("min_stock", product.MinStock),
		)
	}
	return product, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStock(ctx, s.opts.LowStockLimit)
}

func (s *Service) InventoryValuation(ctx context.Context) (domain.InventoryValuation, error) {
	return s.repo.GetInventoryValuation(ctx)
}

func (s *Service) productFromRequest(req domain.ProductRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validateRequest(req); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		Name:                req.Name,
		Description:         req.Description,
		CostCents:           req.CostCents,
		ListPriceCents:      req.ListPriceCents,
		WholesalePriceCents: req.WholesalePriceCents,
		Stock:               req.Stock,
		MinStock:            req.MinStock,
		CategoryID:          req.CategoryID,
	}, nil
}
