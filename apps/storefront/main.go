package main

import (
	"context"
	"log"

	"go-storefront/apps/storefront/handler"
	"go-storefront/internal/bootstrap"
	"go-storefront/internal/cart"
	"go-storefront/internal/repository"
	"go-storefront/internal/service"
	"go-storefront/pkg/config"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/logger"
	"go-storefront/pkg/tracer"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(c.Log, c.Service.Name)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	if !c.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	shutdownTracer, err := tracer.InitTracer(ctx, c.Service.Name, c.Tracer)
	if err != nil {
		zlog.Fatal("init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	infra, err := bootstrap.Open(ctx, c, zlog)
	if err != nil {
		zlog.Fatal("init infrastructure", zap.Error(err))
	}
	defer infra.Close()

	if err := bootstrap.InitRateLimit(c.Sentinel); err != nil {
		zlog.Fatal("init sentinel", zap.Error(err))
	}

	catalogRepo := repository.NewCatalogRepo(infra.DB)
	store := cart.NewRedisStore(infra.Redis, c.Session.TTL)
	tokens := jwt.NewManager(c.Jwt.Secret, c.Jwt.Expire, c.Jwt.Issuer)

	h := handler.New(handler.Services{
		Catalog:  service.NewCatalogService(catalogRepo, infra.Search),
		Carts:    service.NewCartService(catalogRepo, store, c.Store.DeliveryFee),
		Wishlist: service.NewWishlistService(repository.NewWishlistRepo(infra.DB), catalogRepo),
		Checkout: service.NewCheckoutService(infra.DB, store, infra.Events, c.Store.DeliveryFee, zlog),
		Orders:   service.NewOrderService(repository.NewOrderRepo(infra.DB), infra.Events, zlog),
		Accounts: service.NewAccountService(repository.NewUserRepo(infra.DB), tokens, service.NewRedisDenylist(infra.Redis), zlog),
	}, zlog)

	r := handler.NewRouter(h, handler.RouterOptions{
		Session:     c.Session,
		Store:       store,
		RateLimit:   c.Sentinel.Enabled,
		Middlewares: []gin.HandlerFunc{otelgin.Middleware(c.Service.Name)},
	})

	if err := bootstrap.Serve(ctx, c.Service, c.Consul, r, zlog); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}
}
