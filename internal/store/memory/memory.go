package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	promotions map[int64]domain.Promotion
	sales      map[int64]*domain.Sale
	lastID     map[string]int64
}

func New() *Store {
	return &Store{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		promotions: make(map[int64]domain.Promotion),
		sales:      make(map[int64]*domain.Sale),
		lastID:     make(map[string]int64),
	}
}

// NewSeeded returns a store preloaded with a small trailer-parts catalog and
// two demo promotions.
func NewSeeded() *Store {
	s := New()

	categories := []domain.Category{
		{Name: "Couplings", Color: "#1E88E5"},
		{Name: "Lighting", Color: "#FDD835"},
		{Name: "Axles & Suspension", Color: "#6D4C41"},
		{Name: "Electrical", Color: "#43A047"},
	}
	for _, c := range categories {
		c.ID = s.nextID("category")
		s.categories[c.ID] = c
	}

	products := []domain.Product{
		{Name: "Ball hitch 50mm", CostCents: 6500, ListPriceCents: 10000, WholesalePriceCents: 8500, Stock: 24, MinStock: 5, CategoryID: 1},
		{Name: "Coupling head 2000kg", CostCents: 21000, ListPriceCents: 32000, WholesalePriceCents: 27500, Stock: 8, MinStock: 2, CategoryID: 1},
		{Name: "Safety chain set", CostCents: 3200, ListPriceCents: 5500, WholesalePriceCents: 4600, Stock: 30, MinStock: 6, CategoryID: 1},
		{Name: "LED tail lamp", CostCents: 2400, ListPriceCents: 4000, WholesalePriceCents: 3300, Stock: 40, MinStock: 10, CategoryID: 2},
		{Name: "Side marker amber", CostCents: 600, ListPriceCents: 1100, WholesalePriceCents: 900, Stock: 60, MinStock: 12, CategoryID: 2},
		{Name: "Leaf spring 750kg", CostCents: 14500, ListPriceCents: 22000, WholesalePriceCents: 19000, Stock: 6, MinStock: 4, CategoryID: 3},
		{Name: "Wheel bearing kit", CostCents: 4100, ListPriceCents: 6900, WholesalePriceCents: 5800, Stock: 18, MinStock: 6, CategoryID: 3},
		{Name: "7-pin plug", CostCents: 1300, ListPriceCents: 2500, WholesalePriceCents: 2000, Stock: 45, MinStock: 10, CategoryID: 4},
		{Name: "7-core cable per metre", CostCents: 350, ListPriceCents: 700, WholesalePriceCents: 550, Stock: 300, MinStock: 50, CategoryID: 4},
	}
	for _, p := range products {
		p.ID = s.nextID("product")
		s.products[p.ID] = p
	}

	now := time.Now().UTC()
	promotions := []domain.Promotion{
		{
			Name:         "Lighting kit 10%",
			Kind:         domain.DiscountPercentage,
			PercentOff:   10,
			Active:       true,
			Requirements: []domain.PromotionRequirement{{ProductID: 4, RequiredQty: 2}, {ProductID: 8, RequiredQty: 1}},
			CreatedAt:    now,
		},
		{
			Name:           "Hitch cash deal",
			Kind:           domain.DiscountFixedAmount,
			AmountOffCents: 1500,
			Active:         true,
			Requirements:   []domain.PromotionRequirement{{ProductID: 1, RequiredQty: 1}, {ProductID: 3, RequiredQty: 1}},
			PaymentMethods: []domain.PaymentMethod{domain.PaymentCash},
			CreatedAt:      now,
		},
	}
	for _, promo := range promotions {
		promo.ID = s.nextID("promotion")
		s.promotions[promo.ID] = promo
	}

	return s
}

func (s *Store) nextID(kind string) int64 {
	s.lastID[kind]++
	return s.lastID[kind]
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidRecord
	}
	if s.categoryNameTaken(category.Name, 0) {
		return nil, store.ErrConflict
	}
	category.ID = s.nextID("category")
	s.categories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.categories[category.ID]; !exists {
		return nil, store.ErrNotFound
	}
	if s.categoryNameTaken(category.Name, category.ID) {
		return nil, store.ErrConflict
	}
	s.categories[category.ID] = category
	updated := category
	return &updated, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[id]; !exists {
		return store.ErrNotFound
	}
	for _, p := range s.products {
		if p.CategoryID == id {
			return store.ErrConflict
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) categoryNameTaken(name string, exceptID int64) bool {
	for _, c := range s.categories {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Deleted {
			continue
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		products = append(products, p)
	}
	sortProductsByName(products)
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists || product.Deleted {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if product, exists := s.products[id]; exists {
			out[id] = product
		}
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProduct(product); err != nil {
		return nil, err
	}
	product.ID = s.nextID("product")
	product.Deleted = false
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists || existing.Deleted {
		return nil, store.ErrNotFound
	}
	if err := s.checkProduct(product); err != nil {
		return nil, err
	}
	product.Deleted = false
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) checkProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" || product.Stock < 0 || product.MinStock < 0 {
		return store.ErrInvalidRecord
	}
	if product.CostCents < 0 || product.ListPriceCents < 0 || product.WholesalePriceCents < 0 {
		return store.ErrInvalidRecord
	}
	if _, exists := s.categories[product.CategoryID]; !exists {
		return store.ErrInvalidRecord
	}
	return nil
}

func (s *Store) SoftDeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists || product.Deleted {
		return store.ErrNotFound
	}
	product.Deleted = true
	s.products[id] = product
	return nil
}

func (s *Store) AdjustStock(_ context.Context, id int64, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists || product.Deleted {
		return nil, store.ErrNotFound
	}
	product.Stock = max(0, product.Stock+delta)
	s.products[id] = product
	updated := product
	return &updated, nil
}

func (s *Store) ListLowStock(_ context.Context, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0)
	for _, p := range s.products {
		if !p.Deleted && p.IsLowStock() {
			products = append(products, p)
		}
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Stock == b.Stock {
			return cmp.Compare(a.Name, b.Name)
		}
		return cmp.Compare(a.Stock, b.Stock)
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *Store) GetInventoryValuation(_ context.Context) (domain.InventoryValuation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var valuation domain.InventoryValuation
	for _, p := range s.products {
		if p.Deleted {
			continue
		}
		valuation.Products++
		valuation.Units += p.Stock
		valuation.CostCents += int64(p.Stock) * p.CostCents
		valuation.ListPriceCents += int64(p.Stock) * p.ListPriceCents
		if p.IsLowStock() {
			valuation.LowStock++
		}
	}
	return valuation, nil
}

func (s *Store) ListPromotions(_ context.Context) ([]domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promos := make([]domain.Promotion, 0, len(s.promotions))
	for _, promo := range s.promotions {
		if promo.Deleted {
			continue
		}
		promos = append(promos, clonePromotion(promo))
	}
	slices.SortFunc(promos, func(a, b domain.Promotion) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return promos, nil
}

func (s *Store) GetPromotion(_ context.Context, id int64) (*domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promo, exists := s.promotions[id]
	if !exists || promo.Deleted {
		return nil, store.ErrNotFound
	}
	copyPromo := clonePromotion(promo)
	return &copyPromo, nil
}

func (s *Store) SavePromotion(_ context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(promo.Name) == "" || len(promo.Requirements) == 0 {
		return nil, store.ErrInvalidRecord
	}
	for _, req := range promo.Requirements {
		if req.RequiredQty < 1 {
			return nil, store.ErrInvalidRecord
		}
		if _, exists := s.products[req.ProductID]; !exists {
			return nil, store.ErrInvalidRecord
		}
	}

	if promo.ID == 0 {
		promo.ID = s.nextID("promotion")
		if promo.CreatedAt.IsZero() {
			promo.CreatedAt = time.Now().UTC()
		}
	} else {
		existing, exists := s.promotions[promo.ID]
		if !exists || existing.Deleted {
			return nil, store.ErrNotFound
		}
		promo.CreatedAt = existing.CreatedAt
	}
	promo.Deleted = false
	promo = clonePromotion(promo)
	s.promotions[promo.ID] = promo
	saved := clonePromotion(promo)
	return &saved, nil
}

func (s *Store) SetPromotionActive(_ context.Context, id int64, active bool) (*domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo, exists := s.promotions[id]
	if !exists || promo.Deleted {
		return nil, store.ErrNotFound
	}
	promo.Active = active
	s.promotions[id] = promo
	updated := clonePromotion(promo)
	return &updated, nil
}

func (s *Store) SoftDeletePromotion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	promo, exists := s.promotions[id]
	if !exists || promo.Deleted {
		return store.ErrNotFound
	}
	promo.Deleted = true
	s.promotions[id] = promo
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Lines) == 0 {
		return nil, store.ErrInvalidRecord
	}
	for _, line := range sale.Lines {
		if line.Qty < 1 {
			return nil, store.ErrInvalidRecord
		}
		if _, exists := s.products[line.ProductID]; !exists {
			return nil, store.ErrInvalidRecord
		}
	}

	sale.ID = s.nextID("sale")
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusActive
	}
	lines := make([]domain.SaleLine, len(sale.Lines))
	for i, line := range sale.Lines {
		product := s.products[line.ProductID]
		product.Stock = max(0, product.Stock-line.Qty)
		s.products[line.ProductID] = product

		line.ID = s.nextID("sale_line")
		line.SaleID = sale.ID
		line.ProductName = product.Name
		lines[i] = line
	}
	sale.Lines = lines

	saved := cloneSale(&sale)
	s.sales[sale.ID] = saved
	return cloneSale(saved), nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0)
	for _, sale := range s.sales {
		if filter.From != nil && sale.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !sale.CreatedAt.Before(*filter.To) {
			continue
		}
		if filter.PaymentMethod != "" && sale.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if filter.Tier != "" && sale.Tier != filter.Tier {
			continue
		}
		sales = append(sales, *cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}
	return sales, nil
}

func (s *Store) VoidSale(_ context.Context, id int64, restoreStock bool, at time.Time) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusActive {
		return nil, store.ErrConflict
	}

	if restoreStock {
		for _, line := range sale.Lines {
			product, exists := s.products[line.ProductID]
			if !exists {
				continue
			}
			product.Stock += line.Qty
			s.products[line.ProductID] = product
		}
	}
	sale.Status = domain.SaleStatusVoided
	voidedAt := at
	sale.VoidedAt = &voidedAt

	return cloneSale(sale), nil
}

func (s *Store) GetSalesSummary(_ context.Context, from time.Time, to time.Time, topN int) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{From: from, To: to, TopProducts: []domain.TopProduct{}}
	qtyByProduct := make(map[int64]int)
	for _, sale := range s.sales {
		if sale.Status != domain.SaleStatusActive {
			continue
		}
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		summary.SalesCount++
		summary.TotalCents += sale.TotalCents
		for _, line := range sale.Lines {
			cost := s.products[line.ProductID].CostCents
			summary.EstimatedProfitCents += line.SubtotalCents - int64(line.Qty)*cost
			qtyByProduct[line.ProductID] += line.Qty
		}
	}
	if summary.SalesCount > 0 {
		summary.AverageTicketCents = summary.TotalCents / summary.SalesCount
	}

	for productID, qty := range qtyByProduct {
		summary.TopProducts = append(summary.TopProducts, domain.TopProduct{
			ProductID: productID,
			Name:      s.products[productID].Name,
			QtySold:   qty,
		})
	}
	slices.SortFunc(summary.TopProducts, func(a, b domain.TopProduct) int {
		if a.QtySold == b.QtySold {
			return cmp.Compare(a.ProductID, b.ProductID)
		}
		return cmp.Compare(b.QtySold, a.QtySold)
	})
	if topN > 0 && len(summary.TopProducts) > topN {
		summary.TopProducts = summary.TopProducts[:topN]
	}
	return summary, nil
}

func sortProductsByName(products []domain.Product) {
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func clonePromotion(src domain.Promotion) domain.Promotion {
	dst := src
	dst.Requirements = slices.Clone(src.Requirements)
	dst.PaymentMethods = slices.Clone(src.PaymentMethods)
	if src.StartsAt != nil {
		v := *src.StartsAt
		dst.StartsAt = &v
	}
	if src.EndsAt != nil {
		v := *src.EndsAt
		dst.EndsAt = &v
	}
	return dst
}

func cloneSale(src *domain.Sale) *domain.Sale {
	dst := *src
	dst.Lines = slices.Clone(src.Lines)
	if src.VoidedAt != nil {
		v := *src.VoidedAt
		dst.VoidedAt = &v
	}
	return &dst
}
