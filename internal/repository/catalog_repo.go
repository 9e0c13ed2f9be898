package repository

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/pkg/apperror"

	"gorm.io/gorm"
)

type CatalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *CatalogRepo) WithTx(tx *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: tx}
}

// ProductQuery 商品列表查询条件, 零值表示不限制
type ProductQuery struct {
	CategorySlug string
	// SKUs 非 nil 时只在这些 SKU 中查找, 空切片表示没有结果
	SKUs       []string
	ExcludeSKU string
	Limit      int
	// NewestFirst 按 SKU 倒序
	NewestFirst bool
}

// inStock 总库存 > 0 的商品
func (r *CatalogRepo) inStock() *gorm.DB {
	return r.db.Model(&model.Inventory{}).
		Select("product_sku").
		Group("product_sku").
		Having("SUM(units_in_stock) > ?", 0)
}

// ListAvailable 上架且有货的商品, 预加载图片和库存
func (r *CatalogRepo) ListAvailable(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	if q.SKUs != nil && len(q.SKUs) == 0 {
		return []model.Product{}, nil
	}

	tx := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Inventories").
		Where("is_enabled = ?", true).
		Where("sku IN (?)", r.inStock())

	if q.CategorySlug != "" {
		tx = tx.Where("category_slug = ?", q.CategorySlug)
	}
	if q.SKUs != nil {
		tx = tx.Where("sku IN ?", q.SKUs)
	}
	if q.ExcludeSKU != "" {
		tx = tx.Where("sku <> ?", q.ExcludeSKU)
	}
	if q.NewestFirst {
		tx = tx.Order("sku DESC")
	} else {
		tx = tx.Order("sku")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var products []model.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list available products: %w", err)
	}
	return products, nil
}

// GetProduct 按 SKU 查询, 预加载分类、图片、库存
func (r *CatalogRepo) GetProduct(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Inventories", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Inventories.Location").
		Where("sku = ?", sku).
		First(&p).Error
	if err != nil {
		return nil, apperror.FromGorm(err, "product %q not found", sku)
	}
	return &p, nil
}

// GetProductsBySKUs 批量查询, 不存在的 SKU 被忽略
func (r *CatalogRepo) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Inventories").
		Where("sku IN ?", skus).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, p := range products {
		out[p.SKU] = p
	}
	return out, nil
}

// AvailableStock 商品所有库存行之和
func (r *CatalogRepo) AvailableStock(ctx context.Context, sku string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Inventory{}).
		Select("COALESCE(SUM(units_in_stock), 0)").
		Where("product_sku = ?", sku).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum stock for %s: %w", sku, err)
	}
	return int(total), nil
}

func (r *CatalogRepo) ProductExists(ctx context.Context, sku string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", sku).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// AdminProductQuery 后台商品列表
type AdminProductQuery struct {
	Search  string
	Enabled *bool
}

// ListProducts 后台列表, 标题或 SKU 模糊匹配
func (r *CatalogRepo) ListProducts(ctx context.Context, q AdminProductQuery) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Inventories").
		Order("sku")
	if q.Search != "" {
		pattern := ContainsPattern(q.Search)
		tx = tx.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(sku) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	if q.Enabled != nil {
		tx = tx.Where("is_enabled = ?", *q.Enabled)
	}
	var products []model.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	// 图片和库存行由调用方单独写入
	return r.db.WithContext(ctx).Select("*").Omit("Category", "Images", "Inventories").Create(p).Error
}

// UpdateProduct 保存可编辑字段, SKU 不可修改
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", p.SKU).Updates(map[string]interface{}{
		"category_slug": p.CategorySlug,
		"title":         p.Title,
		"description":   p.Description,
		"body":          p.Body,
		"unit_cost":     p.UnitCost,
		"unit_price":    p.UnitPrice,
		"is_enabled":    p.IsEnabled,
	})
	if res.Error != nil {
		return fmt.Errorf("update product %s: %w", p.SKU, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product %q not found", p.SKU)
	}
	return nil
}

// DeleteProduct 删除商品及其图片、库存、收藏; 不检查订单引用
func (r *CatalogRepo) DeleteProduct(ctx context.Context, sku string) error {
	db := r.db.WithContext(ctx)
	for _, m := range []interface{}{&model.ProductImage{}, &model.Inventory{}, &model.WishlistItem{}} {
		if err := db.Where("product_sku = ?", sku).Delete(m).Error; err != nil {
			return fmt.Errorf("delete %T of %s: %w", m, sku, err)
		}
	}
	res := db.Where("sku = ?", sku).Delete(&model.Product{})
	if res.Error != nil {
		return fmt.Errorf("delete product %s: %w", sku, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product %q not found", sku)
	}
	return nil
}

// CountOrderItems 引用该商品的订单明细数
func (r *CatalogRepo) CountOrderItems(ctx context.Context, sku string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).Where("product_sku = ?", sku).Count(&n).Error
	return n, err
}

func (r *CatalogRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

func (r *CatalogRepo) AddImage(ctx context.Context, img *model.ProductImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *CatalogRepo) DeleteImage(ctx context.Context, sku string, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND product_sku = ?", id, sku).Delete(&model.ProductImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("image %d of product %q not found", id, sku)
	}
	return nil
}

// ---- 分类 ----

// ListCategories 按名称排序, search 匹配名称或 slug
func (r *CatalogRepo) ListCategories(ctx context.Context, search string) ([]model.Category, error) {
	tx := r.db.WithContext(ctx).Order("name").Order("slug")
	if search != "" {
		pattern := ContainsPattern(search)
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(slug) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	var categories []model.Category
	if err := tx.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CatalogRepo) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, apperror.FromGorm(err, "category %q not found", slug)
	}
	return &c, nil
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// UpdateCategory oldSlug 对应的行改为 c 的内容 (包括 slug)
func (r *CatalogRepo) UpdateCategory(ctx context.Context, oldSlug string, c *model.Category) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", oldSlug).Updates(map[string]interface{}{
		"slug":        c.Slug,
		"name":        c.Name,
		"description": c.Description,
	})
	if res.Error != nil {
		return fmt.Errorf("update category %s: %w", oldSlug, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("category %q not found", oldSlug)
	}
	return nil
}

// DeleteCategory 先把商品的分类置空再删除
func (r *CatalogRepo) DeleteCategory(ctx context.Context, slug string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Product{}).Where("category_slug = ?", slug).Update("category_slug", nil).Error; err != nil {
		return fmt.Errorf("detach products from %s: %w", slug, err)
	}
	res := db.Where("slug = ?", slug).Delete(&model.Category{})
	if res.Error != nil {
		return fmt.Errorf("delete category %s: %w", slug, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("category %q not found", slug)
	}
	return nil
}

func (r *CatalogRepo) CountProductsInCategory(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_slug = ?", slug).Count(&n).Error
	return n, err
}
