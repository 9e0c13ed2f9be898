package handler

import (
	"strconv"

	"go-storefront/internal/model"
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler 后台接口, 所有路由 (登录除外) 要求 staff/admin 角色
type Handler struct {
	admin    *service.AdminService
	orders   *service.OrderService
	accounts *service.AccountService
	log      *zap.Logger
}

func New(admin *service.AdminService, orders *service.OrderService, accounts *service.AccountService, log *zap.Logger) *Handler {
	return &Handler{admin: admin, orders: orders, accounts: accounts, log: log}
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("no %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

// optionalBool 查询参数为空时返回 nil
func optionalBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.ValidationField(name, "enter true or false")
	}
	return &v, nil
}

// orderDetail 订单详情附带金额与可迁移的状态
type orderDetail struct {
	*model.Order
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Total        decimal.Decimal     `json:"total"`
	NextStatuses []model.OrderStatus `json:"next_statuses"`
}

func newOrderDetail(o *model.Order) orderDetail {
	next := o.Status.NextStatuses()
	if next == nil {
		next = []model.OrderStatus{}
	}
	return orderDetail{Order: o, Subtotal: o.Subtotal(), Total: o.Total(), NextStatuses: next}
}
