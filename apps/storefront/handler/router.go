package handler

import (
	"net/http"

	"go-storefront/internal/cart"
	"go-storefront/internal/middleware"
	"go-storefront/pkg/config"
	"go-storefront/pkg/logger"
	"go-storefront/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RouterOptions Middlewares 挂在最外层 (如 otelgin); RateLimit 要求 Sentinel 已初始化
type RouterOptions struct {
	Session     config.SessionConfig
	Store       cart.Store
	RateLimit   bool
	Middlewares []gin.HandlerFunc
}

func guard(enabled bool, resource string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return ratelimit.Guard(resource)
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(logger.Gin(h.log), logger.Recovery(h.log))
	r.Use(opts.Middlewares...)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 所有页面都带会话 (购物车) 和可选登录
	site := r.Group("/")
	site.Use(Session(opts.Store, opts.Session, h.log), middleware.Auth(h.svc.Accounts, h.log, false))
	{
		site.GET("/", h.Home)
		site.GET("/products/", h.Products)
		site.GET("/products/:category_slug/", h.Products)
		site.GET("/products/add-to-cart/:sku/", h.AddToCartForm)
		site.POST("/products/add-to-cart/:sku/", h.AddToCart)
		site.GET("/products/remove-from-cart/:sku/", h.RemoveFromCart)
		site.GET("/my-cart/", h.MyCart)

		site.GET("/checkout/", h.CheckoutForm)
		site.POST("/checkout/", guard(opts.RateLimit, ratelimit.ResCheckout), h.Checkout)
		site.GET("/checkout-done/", h.CheckoutDone)

		site.POST("/register/", h.Register)
		site.POST("/login/", guard(opts.RateLimit, ratelimit.ResLogin), h.Login)
	}

	authed := site.Group("/")
	authed.Use(middleware.RequireLogin())
	{
		authed.GET("/wishlist/", h.Wishlist)
		authed.POST("/add-to-wishlist/:sku/", h.AddToWishlist)
		authed.POST("/remove-from-wishlist/:sku/", h.RemoveFromWishlist)
		authed.GET("/my-orders/", h.MyOrders)
		authed.POST("/logout/", h.Logout)
		authed.POST("/password-change/", h.ChangePassword)
		authed.GET("/personal-details-change/", h.PersonalDetails)
		authed.POST("/personal-details-change/", h.UpdatePersonalDetails)
	}
	return r
}
