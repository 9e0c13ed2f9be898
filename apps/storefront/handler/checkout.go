package handler

import (
	"net/url"

	"go-storefront/internal/middleware"
	"go-storefront/internal/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckoutForm 结算页: 购物车 + 表单初始值, 登录用户预填姓名
func (h *Handler) CheckoutForm(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.svc.Carts.View(ctx, currentCart(c))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}

	var form service.CheckoutForm
	if userID, ok := middleware.UserID(c); ok {
		u, err := h.svc.Accounts.PersonalDetails(ctx, userID)
		if err != nil {
			response.Fail(c, h.log, err)
			return
		}
		form.Billing.FirstName, form.Billing.LastName = u.FirstName, u.LastName
		form.Shipping.FirstName, form.Shipping.LastName = u.FirstName, u.LastName
	}
	response.Success(c, gin.H{"cart": view, "form": form})
}

// Checkout 下单, 成功后购物车清空
func (h *Handler) Checkout(c *gin.Context) {
	var form service.CheckoutForm
	if err := bindJSON(c, &form); err != nil {
		response.Fail(c, h.log, err)
		return
	}

	in := service.PlaceOrderInput{
		SessionID: sessionID(c),
		Cart:      currentCart(c),
		Form:      form,
	}
	if userID, ok := middleware.UserID(c); ok {
		in.UserID = &userID
	}

	order, err := h.svc.Checkout.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, gin.H{
		"order":    newOrderView(order),
		"redirect": "/checkout-done/?order_no=" + url.QueryEscape(order.OrderNo),
	})
}

func (h *Handler) CheckoutDone(c *gin.Context) {
	order, err := h.svc.Orders.GetByOrderNo(c.Request.Context(), c.Query("order_no"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, newOrderView(order))
}

func (h *Handler) MyOrders(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	orders, err := h.svc.Orders.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	response.Success(c, gin.H{"orders": views})
}
