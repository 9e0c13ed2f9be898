package handler

import (
	"strconv"

	"go-storefront/internal/model"
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListOrders ?status= 过滤状态, ?id= 按订单 ID 搜索
func (h *Handler) ListOrders(c *gin.Context) {
	filter := service.OrderFilter{Status: model.OrderStatus(c.Query("status"))}
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Fail(c, h.log, apperror.ValidationField("id", "enter a whole number"))
			return
		}
		filter.ID = uint(id)
	}

	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	rows := make([]service.OrderRow, 0, len(orders))
	for i := range orders {
		rows = append(rows, service.NewOrderRow(&orders[i]))
	}
	response.Success(c, gin.H{"orders": rows, "statuses": model.OrderStatuses})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, newOrderDetail(o))
}

// UpdateOrderStatus 只允许状态机中的迁移
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, newOrderDetail(o))
}

func (h *Handler) UpdateOrderDetails(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req service.OrderDetailsInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	o, err := h.orders.UpdateDetails(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, newOrderDetail(o))
}
