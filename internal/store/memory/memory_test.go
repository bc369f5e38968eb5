package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerstock/internal/domain"
	"trailerstock/internal/store"
)

func TestCreateSaleClampsStockAtZero(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	before, err := repo.GetProduct(ctx, 2)
	require.NoError(t, err)

	sale, err := repo.CreateSale(ctx, domain.Sale{
		TotalCents:    before.ListPriceCents * int64(before.Stock+5),
		Tier:          domain.TierList,
		PaymentMethod: domain.PaymentCash,
		Lines: []domain.SaleLine{{
			ProductID:      2,
			Qty:            before.Stock + 5,
			UnitPriceCents: before.ListPriceCents,
			SubtotalCents:  before.ListPriceCents * int64(before.Stock+5),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusActive, sale.Status)
	assert.Equal(t, before.Name, sale.Lines[0].ProductName)

	after, err := repo.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock)
}

func TestCreateSaleRejectsUnknownProduct(t *testing.T) {
	repo := NewSeeded()

	_, err := repo.CreateSale(context.Background(), domain.Sale{
		Lines: []domain.SaleLine{{ProductID: 999, Qty: 1}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}

func TestVoidSaleRestoresStockOnce(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	sale, err := repo.CreateSale(ctx, domain.Sale{
		TotalCents: 20000,
		Lines:      []domain.SaleLine{{ProductID: 1, Qty: 2, UnitPriceCents: 10000, SubtotalCents: 20000}},
	})
	require.NoError(t, err)

	voided, err := repo.VoidSale(ctx, sale.ID, true, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusVoided, voided.Status)
	require.NotNil(t, voided.VoidedAt)

	product, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 24, product.Stock)

	_, err = repo.VoidSale(ctx, sale.ID, true, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestDeleteCategoryInUseConflicts(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	assert.ErrorIs(t, repo.DeleteCategory(ctx, 1), store.ErrConflict)

	created, err := repo.CreateCategory(ctx, domain.Category{Name: "Winches"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteCategory(ctx, created.ID))

	_, err = repo.CreateCategory(ctx, domain.Category{Name: "couplings"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSoftDeletedProductsAreHiddenFromLists(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	require.NoError(t, repo.SoftDeleteProduct(ctx, 4))

	products, err := repo.ListProducts(ctx, domain.ProductFilter{CategoryID: 2})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Side marker amber", products[0].Name)

	_, err = repo.GetProduct(ctx, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)

	byID, err := repo.GetProductsByIDs(ctx, []int64{4})
	require.NoError(t, err)
	assert.True(t, byID[4].Deleted)
}

func TestListProductsSearchesByName(t *testing.T) {
	repo := NewSeeded()

	products, err := repo.ListProducts(context.Background(), domain.ProductFilter{Query: "PLUG"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(8), products[0].ID)
}

func TestAdjustStockClampsAtZero(t *testing.T) {
	repo := NewSeeded()

	product, err := repo.AdjustStock(context.Background(), 6, -100)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)

	low, err := repo.ListLowStock(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, low)
	assert.Equal(t, int64(6), low[0].ID)
}

func TestSavePromotionReplacesSets(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()

	promo, err := repo.GetPromotion(ctx, 2)
	require.NoError(t, err)
	require.Len(t, promo.PaymentMethods, 1)

	promo.Requirements = []domain.PromotionRequirement{{ProductID: 7, RequiredQty: 2}}
	promo.PaymentMethods = nil
	saved, err := repo.SavePromotion(ctx, *promo)
	require.NoError(t, err)
	assert.Equal(t, []domain.PromotionRequirement{{ProductID: 7, RequiredQty: 2}}, saved.Requirements)
	assert.Empty(t, saved.PaymentMethods)

	require.NoError(t, repo.SoftDeletePromotion(ctx, 1))
	promos, err := repo.ListPromotions(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, int64(2), promos[0].ID)
}

func TestSalesSummaryCountsActiveSalesOnly(t *testing.T) {
	repo := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.CreateSale(ctx, domain.Sale{
		CreatedAt:  now,
		TotalCents: 20000,
		Status:     domain.SaleStatusActive,
		Lines:      []domain.SaleLine{{ProductID: 1, Qty: 2, UnitPriceCents: 10000, SubtotalCents: 20000}},
	})
	require.NoError(t, err)
	_, err = repo.CreateSale(ctx, domain.Sale{
		CreatedAt:  now,
		TotalCents: 7500,
		Lines:      []domain.SaleLine{{ProductID: 8, Qty: 3, UnitPriceCents: 2500, SubtotalCents: 7500}},
	})
	require.NoError(t, err)
	voided, err := repo.CreateSale(ctx, domain.Sale{
		CreatedAt:  now,
		TotalCents: 4000,
		Lines:      []domain.SaleLine{{ProductID: 4, Qty: 1, UnitPriceCents: 4000, SubtotalCents: 4000}},
	})
	require.NoError(t, err)
	_, err = repo.VoidSale(ctx, voided.ID, true, now)
	require.NoError(t, err)

	summary, err := repo.GetSalesSummary(ctx, now.Add(-time.Hour), now.Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.SalesCount)
	assert.Equal(t, int64(27500), summary.TotalCents)
	assert.Equal(t, int64(13750), summary.AverageTicketCents)
	assert.Equal(t, int64((20000-2*6500)+(7500-3*1300)), summary.EstimatedProfitCents)
	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, int64(8), summary.TopProducts[0].ProductID)
	assert.Equal(t, first.Lines[0].ProductID, summary.TopProducts[1].ProductID)
}
