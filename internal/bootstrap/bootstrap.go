// Package bootstrap 两个 HTTP 服务共用的启动流程: 基础设施连接、限流、HTTP 服务与 Consul 注册
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/event"
	"go-storefront/internal/model"
	"go-storefront/internal/search"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra 已建立的外部连接
type Infra struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Search search.Backend
	Events event.Publisher
}

// Open 连接 MySQL/Redis 并建表; Elasticsearch 与 RabbitMQ 按配置启用, 未启用时退回数据库搜索和空发布者
func Open(ctx context.Context, c *config.Config, log *zap.Logger) (*Infra, error) {
	db, err := database.InitMySQL(c.Mysql, log)
	if err != nil {
		return nil, fmt.Errorf("init mysql: %w", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := database.InitRedis(ctx, c.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	infra := &Infra{DB: db, Redis: rdb}

	infra.Search, err = openSearch(ctx, c.Elasticsearch, db, log)
	if err != nil {
		infra.Close()
		return nil, err
	}

	if c.RabbitMQ.Enabled {
		pub, err := event.NewAMQPPublisher(c.RabbitMQ.URL, c.RabbitMQ.Exchange)
		if err != nil {
			infra.Close()
			return nil, err
		}
		log.Info("rabbitmq connected", zap.String("exchange", c.RabbitMQ.Exchange))
		infra.Events = pub
	} else {
		infra.Events = event.NopPublisher{}
	}
	return infra, nil
}

func openSearch(ctx context.Context, cfg config.ElasticsearchConfig, db *gorm.DB, log *zap.Logger) (search.Backend, error) {
	if !cfg.Enabled {
		return search.NewDBSearcher(db), nil
	}
	client, err := search.NewElasticClient(cfg.URL)
	if err != nil {
		return nil, err
	}
	es := search.NewElasticSearcher(client, cfg.Index)
	created, err := es.EnsureIndex(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("elasticsearch connected", zap.String("url", cfg.URL), zap.String("index", cfg.Index))
	if created {
		backfill(ctx, db, es, log)
	}
	return es, nil
}

// backfill 新建的索引写入已有商品; 失败只记录, 可通过后台 /admin/search/reindex/ 重试
func backfill(ctx context.Context, db *gorm.DB, idx search.Indexer, log *zap.Logger) {
	n, err := search.Rebuild(ctx, db, idx)
	if err != nil {
		log.Warn("backfill search index", zap.Int("indexed", n), zap.Error(err))
		return
	}
	log.Info("search index backfilled", zap.Int("products", n))
}

// Close 关闭发布者、Redis 与数据库连接
func (i *Infra) Close() error {
	var errs []error
	if i.Events != nil {
		errs = append(errs, i.Events.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		if sqlDB, err := i.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// InitRateLimit 启用时加载结账与登录的 QPS 规则
func InitRateLimit(cfg config.SentinelConfig) error {
	if !cfg.Enabled {
		return nil
	}
	return ratelimit.Init(map[string]float64{
		ratelimit.ResCheckout: cfg.CheckoutQPS,
		ratelimit.ResLogin:    cfg.LoginQPS,
	})
}
