package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderNew        OrderStatus = "NEW"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderDelivering OrderStatus = "DELIVERING"
	OrderDone       OrderStatus = "DONE"
	OrderDenied     OrderStatus = "DENIED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses 全部合法状态, 按生命周期排序
var OrderStatuses = []OrderStatus{
	OrderNew, OrderProcessing, OrderDelivering, OrderDone, OrderDenied, OrderCancelled,
}

// 状态机: 未列出的状态 (DONE/DENIED/CANCELLED) 为终态
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderNew:        {OrderProcessing, OrderCancelled, OrderDenied},
	OrderProcessing: {OrderDelivering, OrderCancelled},
	OrderDelivering: {OrderDone},
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// CanTransition 判断 s -> next 是否允许
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, v := range orderTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// NextStatuses 当前状态可转入的状态
func (s OrderStatus) NextStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// Address 账单/收货地址字段
type Address struct {
	FirstName string `gorm:"type:varchar(64);not null" json:"first_name" validate:"required,max=64"`
	LastName  string `gorm:"type:varchar(64);not null" json:"last_name" validate:"required,max=64"`
	Address   string `gorm:"type:varchar(255);not null" json:"address" validate:"required,max=255"`
	City      string `gorm:"type:varchar(255);not null" json:"city" validate:"required,max=255"`
	Province  string `gorm:"type:varchar(255);not null" json:"province" validate:"required,max=255"`
	Region    string `gorm:"type:varchar(255);not null" json:"region" validate:"required,max=255"`
	Zip       string `gorm:"type:varchar(10);not null" json:"zip" validate:"required,max=10,zip"`
	Phone     string `gorm:"type:varchar(13);not null" json:"phone" validate:"required,max=13,phone"`
}

// Order 订单主表
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNo     string          `gorm:"type:varchar(64);uniqueIndex" json:"order_no"`
	PlacedByID  *uint           `gorm:"index" json:"placed_by_id"`
	PlacedBy    *User           `gorm:"foreignKey:PlacedByID;constraint:OnDelete:CASCADE" json:"placed_by,omitempty"`
	Status      OrderStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	Billing     Address         `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	Shipping    Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"delivery_fee"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate 状态必须是枚举值之一
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if !o.Status.Valid() {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	return nil
}

// Subtotal 明细合计, 需预加载 Items
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Total())
	}
	return total
}

// Total 明细合计 + 运费, 每次实时计算, 不落库
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Add(o.DeliveryFee)
}

// OrderItem 订单明细表, 下单后不再修改
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	ProductSKU *string         `gorm:"column:product_sku;type:varchar(64);index" json:"product_sku"`
	Product    *Product        `gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"unit_price"` // 下单时的单价快照
	Quantity   int             `gorm:"not null" json:"quantity"`
}

func (i *OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}
