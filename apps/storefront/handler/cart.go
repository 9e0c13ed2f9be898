package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// addToCartForm 加购页面: 商品详情 + 购物车中已有数量
type addToCartForm struct {
	*service.ProductDetail
	Quantity   int  `json:"quantity"`
	InCart     bool `json:"in_cart"`
	InWishlist bool `json:"in_wishlist"`
}

func (h *Handler) AddToCartForm(c *gin.Context) {
	ctx := c.Request.Context()
	sku := c.Param("sku")
	detail, err := h.svc.Catalog.ProductDetail(ctx, sku)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}

	form := addToCartForm{ProductDetail: detail, Quantity: 1}
	if q, ok := currentCart(c).Quantity(sku); ok {
		form.Quantity = q
		form.InCart = true
	}
	if userID, ok := middleware.UserID(c); ok {
		form.InWishlist, err = h.svc.Wishlist.Contains(ctx, userID, sku)
		if err != nil {
			response.Fail(c, h.log, err)
			return
		}
	}
	response.Success(c, form)
}

// AddToCart 设置数量 (覆盖原有数量), 返回最新购物车
func (h *Handler) AddToCart(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	st := currentCart(c)
	if err := h.svc.Carts.Add(ctx, sessionID(c), st, c.Param("sku"), req.Quantity); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	h.respondCart(c)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	if err := h.svc.Carts.Remove(c.Request.Context(), sessionID(c), currentCart(c), c.Param("sku")); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	h.respondCart(c)
}

func (h *Handler) MyCart(c *gin.Context) {
	h.respondCart(c)
}

func (h *Handler) respondCart(c *gin.Context) {
	view, err := h.svc.Carts.View(c.Request.Context(), currentCart(c))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, view)
}
