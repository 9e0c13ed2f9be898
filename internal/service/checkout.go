package service

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/cart"
	"go-storefront/internal/event"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrCartEmpty 空购物车不能下单
var ErrCartEmpty = apperror.Conflict("your cart is empty")

// CheckoutForm 账单与收货地址
type CheckoutForm struct {
	Billing  model.Address `json:"billing"`
	Shipping model.Address `json:"shipping"`
}

// PlaceOrderInput UserID 为空表示游客下单
type PlaceOrderInput struct {
	SessionID string
	Cart      *cart.State
	Form      CheckoutForm
	UserID    *uint
}

type CheckoutService struct {
	db          *gorm.DB
	catalog     *repository.CatalogRepo
	inventory   *repository.InventoryRepo
	orders      *repository.OrderRepo
	carts       cart.Store
	publisher   event.Publisher
	validate    *validator.Validate
	deliveryFee decimal.Decimal
	log         *zap.Logger
	newOrderNo  func() string
}

func NewCheckoutService(
	db *gorm.DB,
	carts cart.Store,
	publisher event.Publisher,
	deliveryFee decimal.Decimal,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:          db,
		catalog:     repository.NewCatalogRepo(db),
		inventory:   repository.NewInventoryRepo(db),
		orders:      repository.NewOrderRepo(db),
		carts:       carts,
		publisher:   publisher,
		validate:    NewValidator(),
		deliveryFee: deliveryFee,
		log:         log,
		newOrderNo:  uuid.NewString,
	}
}

// ValidateForm 表单校验, 错误带字段信息
func (s *CheckoutService) ValidateForm(form CheckoutForm) error {
	return validateStruct(s.validate, form)
}

// PlaceOrder 把购物车转为订单: 建单、快照单价、扣库存在同一事务内完成
// 任何一步失败都不会留下订单或库存变化, 购物车保持不变
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	if in.Cart == nil || in.Cart.IsEmpty() {
		return nil, ErrCartEmpty
	}
	if err := s.ValidateForm(in.Form); err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNo:     s.newOrderNo(),
		PlacedByID:  in.UserID,
		Status:      model.OrderNew,
		Billing:     in.Form.Billing,
		Shipping:    in.Form.Shipping,
		DeliveryFee: s.deliveryFee,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		inventory := s.inventory.WithTx(tx)
		orders := s.orders.WithTx(tx)

		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		for _, sku := range in.Cart.SKUs() {
			quantity, _ := in.Cart.Quantity(sku)
			p, err := catalog.GetProduct(ctx, sku)
			if err != nil {
				return err
			}

			item := model.OrderItem{
				OrderID:    order.ID,
				ProductSKU: &p.SKU,
				UnitPrice:  p.UnitPrice,
				Quantity:   quantity,
			}
			if err := orders.CreateItem(ctx, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)

			if err := inventory.Deduct(ctx, sku, quantity); err != nil {
				return stockError(sku, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.String("order_no", order.OrderNo),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total().StringFixed(2)))

	// 订单已提交, 后续步骤失败只记录日志
	if err := s.carts.Delete(ctx, in.SessionID); err != nil {
		s.log.Warn("clear cart after checkout", zap.String("order_no", order.OrderNo), zap.Error(err))
	}
	in.Cart.Clear()
	s.publishPlaced(ctx, order)

	return order, nil
}

func stockError(sku string, err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperror.ValidationField("quantity", fmt.Sprintf("not enough stock for %s", sku))
	case errors.Is(err, repository.ErrStockChanged):
		return apperror.Conflict("stock for %s changed, please retry", sku)
	default:
		return err
	}
}

func (s *CheckoutService) publishPlaced(ctx context.Context, o *model.Order) {
	lines := make([]event.OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		line := event.OrderLine{UnitPrice: item.UnitPrice.StringFixed(2), Quantity: item.Quantity}
		if item.ProductSKU != nil {
			line.SKU = *item.ProductSKU
		}
		lines = append(lines, line)
	}
	err := s.publisher.Publish(ctx, event.OrderPlacedKey, event.OrderPlaced{
		OrderID:  o.ID,
		OrderNo:  o.OrderNo,
		UserID:   o.PlacedByID,
		Total:    o.Total().StringFixed(2),
		Items:    lines,
		PlacedAt: o.CreatedAt,
	})
	if err != nil {
		s.log.Warn("publish order.placed", zap.String("order_no", o.OrderNo), zap.Error(err))
	}
}
