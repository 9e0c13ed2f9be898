package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-storefront/internal/model"

	"github.com/olivere/elastic/v7"
)

const (
	// pageSize 滚动查询每页的命中数
	pageSize = 500
	// scrollKeepAlive 两页之间 scroll 上下文的保留时间
	scrollKeepAlive = "1m"
)

const productMapping = `{
  "mappings": {
    "properties": {
      "sku":         {"type": "keyword"},
      "title":       {"type": "text"},
      "title_lower": {"type": "keyword"},
      "category":    {"type": "keyword"},
      "enabled":     {"type": "boolean"}
    }
  }
}`

// productDoc 索引文档, title_lower 用于子串通配查询
type productDoc struct {
	SKU        string `json:"sku"`
	Title      string `json:"title"`
	TitleLower string `json:"title_lower"`
	Category   string `json:"category,omitempty"`
	Enabled    bool   `json:"enabled"`
}

type ElasticSearcher struct {
	client *elastic.Client
	index  string
}

// NewElasticClient 单节点部署, 关闭嗅探
func NewElasticClient(url string, opts ...elastic.ClientOptionFunc) (*elastic.Client, error) {
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false),
	}, opts...)
	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}
	return client, nil
}

func NewElasticSearcher(client *elastic.Client, index string) *ElasticSearcher {
	return &ElasticSearcher{client: client, index: index}
}

// EnsureIndex 索引不存在时按 mapping 创建, created 表示本次新建 (需要回填)
func (s *ElasticSearcher) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := s.client.IndexExists(s.index).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", s.index, err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.client.CreateIndex(s.index).BodyString(productMapping).Do(ctx); err != nil {
		return false, fmt.Errorf("create index %s: %w", s.index, err)
	}
	return true, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// MatchTitle 用 scroll 翻完所有命中, 之后再由数据库按上架和库存筛选
func (s *ElasticSearcher) MatchTitle(ctx context.Context, text string) ([]string, error) {
	pattern := "*" + wildcardEscaper.Replace(strings.ToLower(text)) + "*"
	scroll := s.client.Scroll(s.index).
		Query(elastic.NewWildcardQuery("title_lower", pattern)).
		FetchSource(false).
		Size(pageSize).
		KeepAlive(scrollKeepAlive)
	defer func() { _ = scroll.Clear(context.Background()) }()

	skus := []string{}
	for {
		res, err := scroll.Do(ctx)
		if errors.Is(err, io.EOF) {
			return skus, nil
		}
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", s.index, err)
		}
		for _, hit := range res.Hits.Hits {
			skus = append(skus, hit.Id)
		}
	}
}

func newProductDoc(p *model.Product) productDoc {
	doc := productDoc{
		SKU:        p.SKU,
		Title:      p.Title,
		TitleLower: strings.ToLower(p.Title),
		Enabled:    p.IsEnabled,
	}
	if p.CategorySlug != nil {
		doc.Category = *p.CategorySlug
	}
	return doc
}

func (s *ElasticSearcher) IndexProduct(ctx context.Context, p *model.Product) error {
	_, err := s.client.Index().Index(s.index).Id(p.SKU).BodyJson(newProductDoc(p)).Do(ctx)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.SKU, err)
	}
	return nil
}

// RemoveProduct 文档不存在时视为成功
func (s *ElasticSearcher) RemoveProduct(ctx context.Context, sku string) error {
	_, err := s.client.Delete().Index(s.index).Id(sku).Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("remove product %s: %w", sku, err)
	}
	return nil
}

// Reindex 批量写入, 任一文档失败时返回失败的 SKU
func (s *ElasticSearcher) Reindex(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	bulk := s.client.Bulk().Index(s.index)
	for i := range products {
		bulk.Add(elastic.NewBulkIndexRequest().Id(products[i].SKU).Doc(newProductDoc(&products[i])))
	}
	res, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index %d products: %w", len(products), err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		skus := make([]string, 0, len(failed))
		for _, item := range failed {
			skus = append(skus, item.Id)
		}
		return fmt.Errorf("bulk index: %d of %d products failed: %s", len(failed), len(products), strings.Join(skus, ", "))
	}
	return nil
}
