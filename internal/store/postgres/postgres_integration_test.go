package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	databaseURL := os.Getenv("TRAILERSTOCK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TRAILERSTOCK_TEST_DATABASE_URL to run postgres integration test")
	}

	s, err := New(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedProduct(t *testing.T, s *Store, stock int) (domain.Category, domain.Product) {
	t.Helper()
	ctx := context.Background()
	stamp := time.Now().UnixNano()

	category, err := s.CreateCategory(ctx, domain.Category{Name: fmt.Sprintf("it-category-%d", stamp)})
	require.NoError(t, err)
	product, err := s.CreateProduct(ctx, domain.Product{
		Name:                fmt.Sprintf("it-product-%d", stamp),
		CostCents:           700,
		ListPriceCents:      1000,
		WholesalePriceCents: 800,
		Stock:               stock,
		MinStock:            1,
		CategoryID:          category.ID,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_lines WHERE product_id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM promotion_requirements WHERE product_id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, category.ID)
	})
	return *category, *product
}

func TestCreateSaleAndVoidRestocks(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 10)

	sale, err := s.CreateSale(ctx, domain.Sale{
		Number:        "19-10-2026-1200",
		TotalCents:    3000,
		Tier:          domain.TierList,
		PaymentMethod: domain.PaymentCash,
		Lines: []domain.SaleLine{{
			ProductID:      product.ID,
			Qty:            3,
			UnitPriceCents: 1000,
			SubtotalCents:  3000,
		}},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID)
	})

	after, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, after.Stock)

	voided, err := s.VoidSale(ctx, sale.ID, true, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusVoided, voided.Status)

	restored, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, restored.Stock)

	_, err = s.VoidSale(ctx, sale.ID, true, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCreateSaleClampsStock(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 2)

	sale, err := s.CreateSale(ctx, domain.Sale{
		Number:        "19-10-2026-1201",
		TotalCents:    5000,
		Tier:          domain.TierList,
		PaymentMethod: domain.PaymentTransfer,
		Lines:         []domain.SaleLine{{ProductID: product.ID, Qty: 5, UnitPriceCents: 1000, SubtotalCents: 5000}},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID)
	})

	after, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock)
}

func TestSavePromotionReplacesRequirementSets(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	_, first := seedProduct(t, s, 5)
	_, second := seedProduct(t, s, 5)

	promo, err := s.SavePromotion(ctx, domain.Promotion{
		Name:           "it-promo",
		Kind:           domain.DiscountPercentage,
		PercentOff:     10,
		Active:         true,
		Requirements:   []domain.PromotionRequirement{{ProductID: first.ID, RequiredQty: 2}},
		PaymentMethods: []domain.PaymentMethod{domain.PaymentCash},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, promo.ID)
	})

	promo.Requirements = []domain.PromotionRequirement{{ProductID: second.ID, RequiredQty: 1}}
	promo.PaymentMethods = nil
	saved, err := s.SavePromotion(ctx, *promo)
	require.NoError(t, err)
	assert.Equal(t, []domain.PromotionRequirement{{ProductID: second.ID, RequiredQty: 1}}, saved.Requirements)
	assert.Empty(t, saved.PaymentMethods)

	require.NoError(t, s.SoftDeletePromotion(ctx, promo.ID))
	_, err = s.GetPromotion(ctx, promo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteCategoryInUseConflicts(t *testing.T) {
	s := newIntegrationStore(t)
	category, _ := seedProduct(t, s, 1)

	err := s.DeleteCategory(context.Background(), category.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
}
