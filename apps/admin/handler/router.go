package handler

import (
	"net/http"

	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/pkg/logger"
	"go-storefront/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	RateLimit   bool
	Middlewares []gin.HandlerFunc
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(logger.Gin(h.log), logger.Recovery(h.log))
	r.Use(opts.Middlewares...)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := r.Group("/admin")
	if opts.RateLimit {
		admin.POST("/login/", ratelimit.Guard(ratelimit.ResLogin), h.Login)
	} else {
		admin.POST("/login/", h.Login)
	}

	staff := admin.Group("/")
	staff.Use(middleware.Auth(h.accounts, h.log, true), middleware.RequireRole(h.log, model.RoleStaff, model.RoleAdmin))
	{
		staff.GET("/", h.Dashboard)
		staff.POST("/logout/", h.Logout)

		staff.GET("/categories/", h.ListCategories)
		staff.POST("/categories/", h.CreateCategory)
		staff.GET("/categories/:slug/", h.GetCategory)
		staff.PUT("/categories/:slug/", h.UpdateCategory)
		staff.DELETE("/categories/:slug/", h.DeleteCategory)

		staff.GET("/locations/", h.ListLocations)
		staff.POST("/locations/", h.CreateLocation)
		staff.GET("/locations/:id/", h.GetLocation)
		staff.PUT("/locations/:id/", h.UpdateLocation)
		staff.DELETE("/locations/:id/", h.DeleteLocation)

		staff.GET("/products/", h.ListProducts)
		staff.POST("/products/", h.CreateProduct)
		staff.GET("/products/:sku/", h.GetProduct)
		staff.PUT("/products/:sku/", h.UpdateProduct)
		staff.DELETE("/products/:sku/", h.DeleteProduct)
		staff.POST("/products/:sku/images/", h.AddImage)
		staff.DELETE("/products/:sku/images/:id/", h.DeleteImage)
		staff.GET("/products/:sku/inventory/", h.ListInventory)
		staff.PUT("/products/:sku/inventory/", h.SetStock)
		staff.POST("/search/reindex/", h.RebuildSearchIndex)

		staff.GET("/orders/", h.ListOrders)
		staff.GET("/orders/:id/", h.GetOrder)
		staff.PUT("/orders/:id/", h.UpdateOrderDetails)
		staff.PUT("/orders/:id/status/", h.UpdateOrderStatus)

		staff.GET("/wishlist/", h.SearchWishlist)

		staff.GET("/users/", h.ListUsers)
		staff.PUT("/users/:id/active/", h.SetUserActive)
		staff.PUT("/users/:id/role/", h.SetUserRole)
	}
	return r
}
