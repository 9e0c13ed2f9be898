package handler

import (
	"go-storefront/internal/cart"
	"go-storefront/internal/model"
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Services 前台用到的业务服务
type Services struct {
	Catalog  *service.CatalogService
	Carts    *service.CartService
	Wishlist *service.WishlistService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Accounts *service.AccountService
}

type Handler struct {
	svc Services
	log *zap.Logger
}

func New(s Services, log *zap.Logger) *Handler {
	return &Handler{svc: s, log: log}
}

// bindJSON 只做反序列化, 字段校验交给 service
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}

func currentCart(c *gin.Context) *cart.State {
	return cart.FromContext(c.Request.Context())
}

// orderView 订单金额实时计算后一并返回
type orderView struct {
	*model.Order
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

func newOrderView(o *model.Order) orderView {
	return orderView{Order: o, Subtotal: o.Subtotal(), Total: o.Total()}
}
