// Package search 商品标题搜索, 数据库实现或 Elasticsearch 实现
package search

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"gorm.io/gorm"
)

// Searcher 返回标题包含 text (不区分大小写) 的商品 SKU
// 结果不过滤上架与库存, 由调用方再按目录条件筛选
type Searcher interface {
	MatchTitle(ctx context.Context, text string) ([]string, error)
}

// Indexer 商品写入后同步索引
type Indexer interface {
	IndexProduct(ctx context.Context, p *model.Product) error
	RemoveProduct(ctx context.Context, sku string) error
	Reindex(ctx context.Context, products []model.Product) error
}

// Backend 同一个实现同时负责查询与索引
type Backend interface {
	Searcher
	Indexer
}

// DBSearcher 直接在 products 表上做 LIKE 查询, 索引操作为空
type DBSearcher struct {
	db *gorm.DB
}

func NewDBSearcher(db *gorm.DB) *DBSearcher {
	return &DBSearcher{db: db}
}

func (s *DBSearcher) MatchTitle(ctx context.Context, text string) ([]string, error) {
	var skus []string
	err := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("LOWER(title) LIKE ? ESCAPE '!'", repository.ContainsPattern(text)).
		Order("sku").
		Pluck("sku", &skus).Error
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	return skus, nil
}

func (s *DBSearcher) IndexProduct(context.Context, *model.Product) error { return nil }

func (s *DBSearcher) RemoveProduct(context.Context, string) error { return nil }

func (s *DBSearcher) Reindex(context.Context, []model.Product) error { return nil }

// rebuildBatch 回填时每批读取并写入的商品数
const rebuildBatch = 500

// Rebuild 把数据库中的全部商品按 SKU 分批写入索引, 返回写入的商品数
func Rebuild(ctx context.Context, db *gorm.DB, idx Indexer) (int, error) {
	var (
		batch []model.Product
		total int
	)
	err := db.WithContext(ctx).FindInBatches(&batch, rebuildBatch, func(_ *gorm.DB, _ int) error {
		if err := idx.Reindex(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		return nil
	}).Error
	if err != nil {
		return total, fmt.Errorf("rebuild search index: %w", err)
	}
	return total, nil
}
