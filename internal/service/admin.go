package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/internal/search"
	"go-storefront/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminService 后台管理: 目录、地点、库存、收藏、用户和统计
type AdminService struct {
	db        *gorm.DB
	catalog   *repository.CatalogRepo
	inventory *repository.InventoryRepo
	orders    *repository.OrderRepo
	wishlist  *repository.WishlistRepo
	users     *repository.UserRepo
	indexer   search.Indexer
	validate  *validator.Validate
	log       *zap.Logger
}

func NewAdminService(db *gorm.DB, indexer search.Indexer, log *zap.Logger) *AdminService {
	return &AdminService{
		db:        db,
		catalog:   repository.NewCatalogRepo(db),
		inventory: repository.NewInventoryRepo(db),
		orders:    repository.NewOrderRepo(db),
		wishlist:  repository.NewWishlistRepo(db),
		users:     repository.NewUserRepo(db),
		indexer:   indexer,
		validate:  NewValidator(),
		log:       log,
	}
}

// ---- 统计 ----

type Dashboard struct {
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal             `json:"revenue"`
	Products       int64                       `json:"products"`
	Users          int64                       `json:"users"`
}

// Dashboard 各状态订单数, 已完成订单的收入, 商品与用户数
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.Revenue(ctx, model.OrderDone)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{OrdersByStatus: counts, Revenue: revenue, Products: products, Users: users}, nil
}

// ---- 分类 ----

type CategoryInput struct {
	Slug        string `json:"slug" validate:"required,max=64,slug"`
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description"`
}

func (s *AdminService) ListCategories(ctx context.Context, search string) ([]model.Category, error) {
	return s.catalog.ListCategories(ctx, strings.TrimSpace(search))
}

func (s *AdminService) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	return s.catalog.GetCategory(ctx, slug)
}

func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.slugAvailable(ctx, in.Slug); err != nil {
		return nil, err
	}
	c := &model.Category{Slug: in.Slug, Name: in.Name, Description: in.Description}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpdateCategory 已有商品的分类不能修改 slug
func (s *AdminService) UpdateCategory(ctx context.Context, slug string, in CategoryInput) (*model.Category, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetCategory(ctx, slug); err != nil {
		return nil, err
	}
	if in.Slug != slug {
		n, err := s.catalog.CountProductsInCategory(ctx, slug)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, apperror.ValidationField("slug", "the slug cannot change while products use this category")
		}
		if err := s.slugAvailable(ctx, in.Slug); err != nil {
			return nil, err
		}
	}

	c := &model.Category{Slug: in.Slug, Name: in.Name, Description: in.Description}
	if err := s.catalog.UpdateCategory(ctx, slug, c); err != nil {
		return nil, err
	}
	return s.catalog.GetCategory(ctx, in.Slug)
}

func (s *AdminService) slugAvailable(ctx context.Context, slug string) error {
	_, err := s.catalog.GetCategory(ctx, slug)
	if err == nil {
		return apperror.ValidationField("slug", "a category with this slug already exists")
	}
	if apperror.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteCategory 商品保留, 分类置空
func (s *AdminService) DeleteCategory(ctx context.Context, slug string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.catalog.WithTx(tx).DeleteCategory(ctx, slug)
	})
}

// ---- 地点 ----

type LocationInput struct {
	Name     string `json:"name" validate:"required,max=64"`
	Address  string `json:"address" validate:"max=255"`
	City     string `json:"city" validate:"max=255"`
	Province string `json:"province" validate:"max=255"`
	Region   string `json:"region" validate:"max=255"`
}

func (in LocationInput) location(id uint) *model.Location {
	return &model.Location{
		ID:       id,
		Name:     in.Name,
		Address:  in.Address,
		City:     in.City,
		Province: in.Province,
		Region:   in.Region,
	}
}

func (s *AdminService) ListLocations(ctx context.Context, search string) ([]model.Location, error) {
	return s.inventory.ListLocations(ctx, strings.TrimSpace(search))
}

func (s *AdminService) GetLocation(ctx context.Context, id uint) (*model.Location, error) {
	return s.inventory.GetLocation(ctx, id)
}

func (s *AdminService) CreateLocation(ctx context.Context, in LocationInput) (*model.Location, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	loc := in.location(0)
	if err := s.inventory.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

func (s *AdminService) UpdateLocation(ctx context.Context, id uint, in LocationInput) (*model.Location, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.inventory.GetLocation(ctx, id); err != nil {
		return nil, err
	}
	if err := s.inventory.UpdateLocation(ctx, in.location(id)); err != nil {
		return nil, err
	}
	return s.inventory.GetLocation(ctx, id)
}

// DeleteLocation 该地点的库存行一并删除
func (s *AdminService) DeleteLocation(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.inventory.WithTx(tx).DeleteLocation(ctx, id)
	})
}

// ---- 商品 ----

type InventoryInput struct {
	LocationID   uint `json:"location_id" validate:"required"`
	UnitsInStock int  `json:"units_in_stock" validate:"gte=0"`
}

// ProductInput 新建商品时至少一张图片和一个库存行
type ProductInput struct {
	SKU          string           `json:"sku" validate:"required,max=64"`
	CategorySlug string           `json:"category_slug" validate:"max=64"`
	Title        string           `json:"title" validate:"required,max=64"`
	Description  string           `json:"description"`
	Body         string           `json:"body"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	IsEnabled    bool             `json:"is_enabled"`
	Images       []string         `json:"images" validate:"min=1,dive,required,max=255"`
	Inventory    []InventoryInput `json:"inventory" validate:"min=1,dive"`
}

// ProductUpdateInput SKU、图片与库存不在此修改
type ProductUpdateInput struct {
	CategorySlug string          `json:"category_slug" validate:"max=64"`
	Title        string          `json:"title" validate:"required,max=64"`
	Description  string          `json:"description"`
	Body         string          `json:"body"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	IsEnabled    bool            `json:"is_enabled"`
}

// ProductRow 后台商品列表的一行
type ProductRow struct {
	SKU            string          `json:"sku"`
	Title          string          `json:"title"`
	CategorySlug   *string         `json:"category_slug"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	IsEnabled      bool            `json:"is_enabled"`
	FirstImage     string          `json:"first_image,omitempty"`
	AvailableStock int             `json:"available_stock"`
}

func (s *AdminService) ListProducts(ctx context.Context, q repository.AdminProductQuery) ([]ProductRow, error) {
	q.Search = strings.TrimSpace(q.Search)
	products, err := s.catalog.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	rows := make([]ProductRow, 0, len(products))
	for i := range products {
		p := &products[i]
		row := ProductRow{
			SKU:            p.SKU,
			Title:          p.Title,
			CategorySlug:   p.CategorySlug,
			UnitPrice:      p.UnitPrice,
			IsEnabled:      p.IsEnabled,
			AvailableStock: p.AvailableStock(),
		}
		if len(p.Images) > 0 {
			row.FirstImage = p.Images[0].Image
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *AdminService) GetProduct(ctx context.Context, sku string) (*model.Product, error) {
	return s.catalog.GetProduct(ctx, sku)
}

func (s *AdminService) checkProductFields(ctx context.Context, categorySlug string, cost, price decimal.Decimal) error {
	fields := map[string]string{}
	if !model.ValidPrice(cost) {
		fields["unit_cost"] = "enter a valid amount (0 to 99999.99, at most 2 decimal places)"
	}
	if !model.ValidPrice(price) {
		fields["unit_price"] = "enter a valid amount (0 to 99999.99, at most 2 decimal places)"
	}
	if categorySlug != "" {
		if _, err := s.catalog.GetCategory(ctx, categorySlug); err != nil {
			if !apperror.IsNotFound(err) {
				return err
			}
			fields["category_slug"] = "unknown category"
		}
	}
	if len(fields) > 0 {
		return apperror.ValidationFields(fields)
	}
	return nil
}

func optionalSlug(slug string) *string {
	if slug == "" {
		return nil
	}
	return &slug
}

func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.checkProductFields(ctx, in.CategorySlug, in.UnitCost, in.UnitPrice); err != nil {
		return nil, err
	}
	exists, err := s.catalog.ProductExists(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ValidationField("sku", "a product with this SKU already exists")
	}
	seen := make(map[uint]bool, len(in.Inventory))
	for i, inv := range in.Inventory {
		field := fmt.Sprintf("inventory[%d].location_id", i)
		if seen[inv.LocationID] {
			return nil, apperror.ValidationField(field, "duplicate location")
		}
		seen[inv.LocationID] = true
		if _, err := s.inventory.GetLocation(ctx, inv.LocationID); err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.ValidationField(field, "unknown location")
			}
			return nil, err
		}
	}

	p := &model.Product{
		SKU:          in.SKU,
		CategorySlug: optionalSlug(in.CategorySlug),
		Title:        in.Title,
		Description:  in.Description,
		Body:         in.Body,
		UnitCost:     in.UnitCost,
		UnitPrice:    in.UnitPrice,
		IsEnabled:    in.IsEnabled,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		inventory := s.inventory.WithTx(tx)
		if err := catalog.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		for _, image := range in.Images {
			if err := catalog.AddImage(ctx, &model.ProductImage{ProductSKU: p.SKU, Image: image}); err != nil {
				return fmt.Errorf("add image: %w", err)
			}
		}
		for _, inv := range in.Inventory {
			if _, err := inventory.SetStock(ctx, inv.LocationID, p.SKU, inv.UnitsInStock); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, p.SKU)
	return s.catalog.GetProduct(ctx, p.SKU)
}

func (s *AdminService) UpdateProduct(ctx context.Context, sku string, in ProductUpdateInput) (*model.Product, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return nil, err
	}
	if err := s.checkProductFields(ctx, in.CategorySlug, in.UnitCost, in.UnitPrice); err != nil {
		return nil, err
	}
	err := s.catalog.UpdateProduct(ctx, &model.Product{
		SKU:          sku,
		CategorySlug: optionalSlug(in.CategorySlug),
		Title:        in.Title,
		Description:  in.Description,
		Body:         in.Body,
		UnitCost:     in.UnitCost,
		UnitPrice:    in.UnitPrice,
		IsEnabled:    in.IsEnabled,
	})
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, sku)
	return s.catalog.GetProduct(ctx, sku)
}

// DeleteProduct 已被订单引用的商品只能下架, 不能删除
func (s *AdminService) DeleteProduct(ctx context.Context, sku string) error {
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return err
	}
	n, err := s.catalog.CountOrderItems(ctx, sku)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.Conflict("product %q appears in %d order item(s); disable it instead", sku, n)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.catalog.WithTx(tx).DeleteProduct(ctx, sku)
	})
	if err != nil {
		return err
	}
	if err := s.indexer.RemoveProduct(ctx, sku); err != nil {
		s.log.Warn("remove product from search index", zap.String("sku", sku), zap.Error(err))
	}
	return nil
}

// RebuildSearchIndex 把全部商品重新写入搜索索引, 用于补齐写入失败或索引新建前已有的商品
func (s *AdminService) RebuildSearchIndex(ctx context.Context) (int, error) {
	n, err := search.Rebuild(ctx, s.db, s.indexer)
	if err != nil {
		return n, err
	}
	s.log.Info("search index rebuilt", zap.Int("products", n))
	return n, nil
}

// reindex 索引失败不影响数据库写入
func (s *AdminService) reindex(ctx context.Context, sku string) {
	p, err := s.catalog.GetProduct(ctx, sku)
	if err == nil {
		err = s.indexer.IndexProduct(ctx, p)
	}
	if err != nil {
		s.log.Warn("index product", zap.String("sku", sku), zap.Error(err))
	}
}

type ImageInput struct {
	Image string `json:"image" validate:"required,max=255"`
}

func (s *AdminService) AddImage(ctx context.Context, sku string, in ImageInput) (*model.ProductImage, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return nil, err
	}
	img := &model.ProductImage{ProductSKU: sku, Image: in.Image}
	if err := s.catalog.AddImage(ctx, img); err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	return img, nil
}

func (s *AdminService) DeleteImage(ctx context.Context, sku string, id uint) error {
	return s.catalog.DeleteImage(ctx, sku, id)
}

// SetStock 设置某地点的库存
func (s *AdminService) SetStock(ctx context.Context, sku string, in InventoryInput) (*model.Inventory, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return nil, err
	}
	if _, err := s.inventory.GetLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	return s.inventory.SetStock(ctx, in.LocationID, sku, in.UnitsInStock)
}

func (s *AdminService) ListInventory(ctx context.Context, sku string) ([]model.Inventory, error) {
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return nil, err
	}
	return s.inventory.ListForProduct(ctx, sku)
}

// ---- 订单 ----

// OrderRow 后台订单列表的一行
type OrderRow struct {
	ID        uint              `json:"id"`
	OrderNo   string            `json:"order_no"`
	PlacedBy  string            `json:"placed_by"`
	Status    model.OrderStatus `json:"status"`
	Total     string            `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewOrderRow 下单人显示为 "姓, 名", 游客为空
func NewOrderRow(o *model.Order) OrderRow {
	row := OrderRow{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		Status:    o.Status,
		Total:     o.Total().StringFixed(2),
		CreatedAt: o.CreatedAt,
	}
	if o.PlacedBy != nil {
		row.PlacedBy = o.PlacedBy.DisplayName()
	}
	return row
}

// ---- 收藏 ----

type WishlistRow struct {
	ID           uint      `json:"id"`
	User         string    `json:"user"`
	ProductSKU   string    `json:"product_sku"`
	ProductTitle string    `json:"product_title"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *AdminService) SearchWishlist(ctx context.Context, search string) ([]WishlistRow, error) {
	items, err := s.wishlist.Search(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	rows := make([]WishlistRow, 0, len(items))
	for _, item := range items {
		row := WishlistRow{ID: item.ID, ProductSKU: item.ProductSKU, CreatedAt: item.CreatedAt}
		if item.User != nil {
			row.User = item.User.DisplayName()
		}
		if item.Product != nil {
			row.ProductTitle = item.Product.Title
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ---- 用户 ----

func (s *AdminService) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	return s.users.List(ctx, strings.TrimSpace(search))
}

// SetUserActive 停用的用户不能登录
func (s *AdminService) SetUserActive(ctx context.Context, id uint, active bool) (*model.User, error) {
	if err := s.users.Update(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, id)
}

type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=user staff admin"`
}

func (s *AdminService) SetUserRole(ctx context.Context, id uint, in RoleInput) (*model.User, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, id, map[string]interface{}{"role": in.Role}); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, id)
}
