package service

import (
	"context"

	"go-storefront/internal/event"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService struct {
	orders    *repository.OrderRepo
	publisher event.Publisher
	validate  *validator.Validate
	log       *zap.Logger
}

func NewOrderService(orders *repository.OrderRepo, publisher event.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{orders: orders, publisher: publisher, validate: NewValidator(), log: log}
}

func (s *OrderService) Get(ctx context.Context, id uint) (*model.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *OrderService) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	if orderNo == "" {
		return nil, apperror.ValidationField("order_no", "this field is required")
	}
	return s.orders.GetByOrderNo(ctx, orderNo)
}

// ListForUser 用户的历史订单, 最新的在前
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.orders.List(ctx, repository.OrderQuery{UserID: userID})
}

// OrderFilter 后台订单列表: 状态过滤和按 ID 搜索
type OrderFilter struct {
	Status model.OrderStatus
	ID     uint
}

func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.ValidationField("status", "unknown order status")
	}
	return s.orders.List(ctx, repository.OrderQuery{Status: f.Status, ID: f.ID})
}

// UpdateStatus 按状态机迁移订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, next model.OrderStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, apperror.ValidationField("status", "unknown order status")
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(next) {
		return nil, apperror.ValidationField("status",
			"cannot change status from "+string(o.Status)+" to "+string(next))
	}

	ok, err := s.orders.UpdateStatus(ctx, id, o.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("order %d was modified concurrently, please retry", id)
	}

	prev := o.Status
	o.Status = next
	s.log.Info("order status changed",
		zap.Uint("order_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))

	err = s.publisher.Publish(ctx, event.OrderStatusChangedKey, event.OrderStatusChanged{
		OrderID: o.ID,
		OrderNo: o.OrderNo,
		From:    string(prev),
		To:      string(next),
	})
	if err != nil {
		s.log.Warn("publish order.status_changed", zap.Uint("order_id", id), zap.Error(err))
	}
	return o, nil
}

// OrderDetailsInput 后台编辑订单
type OrderDetailsInput struct {
	Billing     model.Address   `json:"billing"`
	Shipping    model.Address   `json:"shipping"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
}

func (s *OrderService) UpdateDetails(ctx context.Context, id uint, in OrderDetailsInput) (*model.Order, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if !model.ValidPrice(in.DeliveryFee) {
		return nil, apperror.ValidationField("delivery_fee", "enter a valid amount")
	}
	if err := s.orders.UpdateDetails(ctx, id, in.Billing, in.Shipping, in.DeliveryFee); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, id)
}
