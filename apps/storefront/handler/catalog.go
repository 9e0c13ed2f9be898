package handler

import (
	"go-storefront/internal/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// Home 首页
func (h *Handler) Home(c *gin.Context) {
	products, err := h.svc.Catalog.TopProducts(c.Request.Context())
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"products": products})
}

// Products 商品列表; 指定分类时忽略 search
func (h *Handler) Products(c *gin.Context) {
	listing, err := h.svc.Catalog.Listing(c.Request.Context(), service.ProductFilter{
		CategorySlug: c.Param("category_slug"),
		Search:       c.Query("search"),
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, listing)
}
