package service

import (
	"context"
	"fmt"
	"strings"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/internal/search"
)

const (
	homeProducts    = 5
	sideProducts    = 3
	relatedProducts = 4
)

type CatalogService struct {
	catalog  *repository.CatalogRepo
	searcher search.Searcher
}

func NewCatalogService(catalog *repository.CatalogRepo, searcher search.Searcher) *CatalogService {
	return &CatalogService{catalog: catalog, searcher: searcher}
}

// AvailableStock 商品在所有地点的库存合计, 商品不存在返回 NotFound
func (s *CatalogService) AvailableStock(ctx context.Context, sku string) (int, error) {
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return 0, err
	}
	return s.catalog.AvailableStock(ctx, sku)
}

func (s *CatalogService) IsInStock(ctx context.Context, sku string) (bool, error) {
	p, err := s.catalog.GetProduct(ctx, sku)
	if err != nil {
		return false, err
	}
	return p.IsInStock(), nil
}

// ProductFilter 目录筛选; 选了分类时忽略 Search
type ProductFilter struct {
	CategorySlug string
	Search       string
}

// ListProducts 上架且有货的商品, 按 SKU 排序
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := repository.ProductQuery{}
	if f.CategorySlug != "" {
		if _, err := s.catalog.GetCategory(ctx, f.CategorySlug); err != nil {
			return nil, err
		}
		q.CategorySlug = f.CategorySlug
	} else if text := strings.TrimSpace(f.Search); text != "" {
		skus, err := s.searcher.MatchTitle(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		if skus == nil {
			skus = []string{}
		}
		q.SKUs = skus
	}
	return s.catalog.ListAvailable(ctx, q)
}

// Listing 目录页数据
type Listing struct {
	Categories []model.Category `json:"categories"`
	Category   *model.Category  `json:"category,omitempty"`
	Search     string           `json:"search,omitempty"`
	Products   []model.Product  `json:"products"`
	Top        []model.Product  `json:"top_products"`
	Recent     []model.Product  `json:"recent_products"`
}

func (s *CatalogService) Listing(ctx context.Context, f ProductFilter) (*Listing, error) {
	products, err := s.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	categories, err := s.catalog.ListCategories(ctx, "")
	if err != nil {
		return nil, err
	}
	// 侧栏不受分类和搜索影响
	top, err := s.catalog.ListAvailable(ctx, repository.ProductQuery{Limit: sideProducts})
	if err != nil {
		return nil, err
	}
	recent, err := s.catalog.ListAvailable(ctx, repository.ProductQuery{NewestFirst: true, Limit: sideProducts})
	if err != nil {
		return nil, err
	}

	l := &Listing{
		Categories: categories,
		Products:   products,
		Top:        top,
		Recent:     recent,
	}
	if f.CategorySlug != "" {
		l.Category, err = s.catalog.GetCategory(ctx, f.CategorySlug)
		if err != nil {
			return nil, err
		}
	} else {
		l.Search = strings.TrimSpace(f.Search)
	}
	return l, nil
}

// TopProducts 首页展示
func (s *CatalogService) TopProducts(ctx context.Context) ([]model.Product, error) {
	return s.catalog.ListAvailable(ctx, repository.ProductQuery{Limit: homeProducts})
}

type ProductDetail struct {
	Product        *model.Product  `json:"product"`
	AvailableStock int             `json:"available_stock"`
	Related        []model.Product `json:"related_products"`
}

// ProductDetail 商品详情及同分类的其他有货商品
func (s *CatalogService) ProductDetail(ctx context.Context, sku string) (*ProductDetail, error) {
	p, err := s.catalog.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}
	d := &ProductDetail{Product: p, AvailableStock: p.AvailableStock(), Related: []model.Product{}}
	if p.CategorySlug != nil {
		d.Related, err = s.catalog.ListAvailable(ctx, repository.ProductQuery{
			CategorySlug: *p.CategorySlug,
			ExcludeSKU:   p.SKU,
			Limit:        relatedProducts,
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}
