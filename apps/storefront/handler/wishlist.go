package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// 以下接口都挂在 RequireLogin 之后

func (h *Handler) Wishlist(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	items, err := h.svc.Wishlist.List(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	item, err := h.svc.Wishlist.Add(c.Request.Context(), userID, c.Param("sku"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, item)
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	if err := h.svc.Wishlist.Remove(c.Request.Context(), userID, c.Param("sku")); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}
