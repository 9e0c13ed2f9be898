// Package testutil 测试用的内存数据库、Redis 与数据构造函数
package testutil

import (
	"context"
	"fmt"
	"testing"

	"go-storefront/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password fixture 用户的明文密码
const Password = "correct-horse"

// DB 每个测试一个独立的内存 SQLite, 单连接
// 事务内的查询必须走 tx, 否则会等待唯一的连接
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// Redis miniredis + 客户端
func Redis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Category(t testing.TB, db *gorm.DB, slug, name string) *model.Category {
	t.Helper()
	c := &model.Category{Slug: slug, Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Location 按名称取或建
func Location(t testing.TB, db *gorm.DB, name string) *model.Location {
	t.Helper()
	var loc model.Location
	err := db.Where(model.Location{Name: name}).FirstOrCreate(&loc, model.Location{
		Name: name, City: "Cebu", Province: "Cebu", Region: "VII",
	}).Error
	require.NoError(t, err)
	return &loc
}

// ProductSpec 构造商品; Stock 的第 i 项放在 "Location i+1"
type ProductSpec struct {
	SKU      string
	Title    string
	Price    string
	Cost     string
	Category string
	Disabled bool
	Stock    []int
	Images   []string
}

func Product(t testing.TB, db *gorm.DB, spec ProductSpec) *model.Product {
	t.Helper()
	if spec.Title == "" {
		spec.Title = spec.SKU
	}
	if spec.Price == "" {
		spec.Price = "1.00"
	}
	if spec.Cost == "" {
		spec.Cost = "0.50"
	}

	p := &model.Product{
		SKU:       spec.SKU,
		Title:     spec.Title,
		UnitPrice: Money(spec.Price),
		UnitCost:  Money(spec.Cost),
		IsEnabled: !spec.Disabled,
	}
	if spec.Category != "" {
		slug := spec.Category
		p.CategorySlug = &slug
	}
	// IsEnabled 默认值为 false, 零值需要显式写入
	require.NoError(t, db.Select("*").Omit("Category", "Images", "Inventories").Create(p).Error)

	for i, units := range spec.Stock {
		loc := Location(t, db, fmt.Sprintf("Location %d", i+1))
		inv := model.Inventory{LocationID: loc.ID, ProductSKU: spec.SKU, UnitsInStock: units}
		require.NoError(t, db.Create(&inv).Error)
		p.Inventories = append(p.Inventories, inv)
	}
	for _, img := range spec.Images {
		image := model.ProductImage{ProductSKU: spec.SKU, Image: img}
		require.NoError(t, db.Create(&image).Error)
		p.Images = append(p.Images, image)
	}
	return p
}

// User 密码为 Password
func User(t testing.TB, db *gorm.DB, username, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Password:  string(hash),
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Stock 某商品各库存行, 按 ID 顺序
func Stock(t testing.TB, db *gorm.DB, sku string) []int {
	t.Helper()
	var rows []model.Inventory
	require.NoError(t, db.WithContext(context.Background()).
		Where("product_sku = ?", sku).Order("id").Find(&rows).Error)
	units := make([]int, 0, len(rows))
	for _, r := range rows {
		units = append(units, r.UnitsInStock)
	}
	return units
}
