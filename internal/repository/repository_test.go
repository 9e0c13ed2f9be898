package repository

import (
	"context"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/internal/testutil"
	"go-storefront/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func skus(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}

func TestListAvailable(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Category(t, db, "tea", "Tea")
	testutil.Category(t, db, "mugs", "Mugs")
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Category: "tea", Stock: []int{0, 2}})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "B", Category: "tea", Stock: []int{0}})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "C", Category: "mugs", Stock: []int{1}})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "D", Category: "tea", Stock: []int{5}, Disabled: true})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "E", Stock: []int{3}})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "F"})

	repo := NewCatalogRepo(db)

	all, err := repo.ListAvailable(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "E"}, skus(all))
	assert.Equal(t, 2, all[0].AvailableStock())

	tea, err := repo.ListAvailable(ctx, ProductQuery{CategorySlug: "tea"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, skus(tea))

	recent, err := repo.ListAvailable(ctx, ProductQuery{NewestFirst: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"E", "C"}, skus(recent))

	some, err := repo.ListAvailable(ctx, ProductQuery{SKUs: []string{"C", "B", "E"}, ExcludeSKU: "E"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, skus(some))

	none, err := repo.ListAvailable(ctx, ProductQuery{SKUs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAvailableStock(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Stock: []int{3, 0, 4}})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "B"})
	repo := NewCatalogRepo(db)

	n, err := repo.AvailableStock(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = repo.AvailableStock(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetProductNotFound(t *testing.T) {
	db := testutil.DB(t)
	_, err := NewCatalogRepo(db).GetProduct(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeductSpillsAcrossRows(t *testing.T) {
	db := testutil.DB(t)
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Stock: []int{2, 0, 3}})

	err := db.Transaction(func(tx *gorm.DB) error {
		return NewInventoryRepo(db).WithTx(tx).Deduct(context.Background(), "A", 4)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, testutil.Stock(t, db, "A"))
}

func TestDeductInsufficientRollsBack(t *testing.T) {
	db := testutil.DB(t)
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Stock: []int{2, 1}})

	err := db.Transaction(func(tx *gorm.DB) error {
		return NewInventoryRepo(db).WithTx(tx).Deduct(context.Background(), "A", 4)
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, []int{2, 1}, testutil.Stock(t, db, "A"))
}

func TestSetStockUpserts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Stock: []int{2}})
	loc := testutil.Location(t, db, "Location 1")
	repo := NewInventoryRepo(db)

	inv, err := repo.SetStock(ctx, loc.ID, "A", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, inv.UnitsInStock)
	assert.Equal(t, []int{9}, testutil.Stock(t, db, "A"))

	other := testutil.Location(t, db, "Warehouse")
	_, err = repo.SetStock(ctx, other.ID, "A", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 1}, testutil.Stock(t, db, "A"))
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Category(t, db, "tea", "Tea")
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Category: "tea"})
	repo := NewCatalogRepo(db)

	require.NoError(t, repo.DeleteCategory(ctx, "tea"))

	p, err := repo.GetProduct(ctx, "A")
	require.NoError(t, err)
	assert.Nil(t, p.CategorySlug)

	assert.True(t, apperror.IsNotFound(repo.DeleteCategory(ctx, "tea")))
}

func TestDeleteProductCascades(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Stock: []int{1}, Images: []string{"a.png"}})
	u := testutil.User(t, db, "ana", model.RoleUser)
	require.NoError(t, NewWishlistRepo(db).Create(ctx, &model.WishlistItem{UserID: u.ID, ProductSKU: "A"}))

	require.NoError(t, NewCatalogRepo(db).DeleteProduct(ctx, "A"))

	for _, m := range []interface{}{&model.ProductImage{}, &model.Inventory{}, &model.WishlistItem{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestOrderStatusConditionalUpdate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewOrderRepo(db)
	o := &model.Order{OrderNo: "n-1", Status: model.OrderNew, DeliveryFee: testutil.Money("3.00")}
	require.NoError(t, repo.Create(ctx, o))

	ok, err := repo.UpdateStatus(ctx, o.ID, model.OrderNew, model.OrderProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, o.ID, model.OrderNew, model.OrderCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.OrderProcessing])
	assert.Equal(t, int64(0), counts[model.OrderNew])
}

func TestCreateOrderRejectsUnknownStatus(t *testing.T) {
	db := testutil.DB(t)
	err := NewOrderRepo(db).Create(context.Background(), &model.Order{OrderNo: "n-2", Status: "SHIPPED"})
	assert.Error(t, err)
}

func TestRevenue(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A"})
	repo := NewOrderRepo(db)

	sku := "A"
	for i, status := range []model.OrderStatus{model.OrderDone, model.OrderNew} {
		o := &model.Order{OrderNo: string(rune('a' + i)), Status: status, DeliveryFee: testutil.Money("3.00")}
		require.NoError(t, repo.Create(ctx, o))
		require.NoError(t, repo.CreateItem(ctx, &model.OrderItem{
			OrderID: o.ID, ProductSKU: &sku, UnitPrice: testutil.Money("12.50"), Quantity: 2,
		}))
	}

	total, err := repo.Revenue(ctx, model.OrderDone)
	require.NoError(t, err)
	assert.Equal(t, "28.00", total.StringFixed(2))
}

func TestWishlistSearch(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	testutil.Product(t, db, testutil.ProductSpec{SKU: "A", Title: "Green Tea"})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "B", Title: "Coffee Mug"})
	ana := testutil.User(t, db, "ana", model.RoleUser)
	ben := testutil.User(t, db, "ben", model.RoleUser)
	repo := NewWishlistRepo(db)
	require.NoError(t, repo.Create(ctx, &model.WishlistItem{UserID: ana.ID, ProductSKU: "A"}))
	require.NoError(t, repo.Create(ctx, &model.WishlistItem{UserID: ben.ID, ProductSKU: "B"}))

	items, err := repo.Search(ctx, "TEA")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ana.ID, items[0].UserID)

	items, err = repo.Search(ctx, "last ben")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ProductSKU)

	items, err = repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestContainsPatternEscapes(t *testing.T) {
	assert.Equal(t, "%tea%", ContainsPattern("TEA"))
	assert.Equal(t, "%50!%!_off!!%", ContainsPattern("50%_off!"))
}
