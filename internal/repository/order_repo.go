package repository

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/pkg/apperror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) WithTx(tx *gorm.DB) *OrderRepo {
	return &OrderRepo{db: tx}
}

// Create 只写订单主表, 明细用 CreateItem 逐条写入
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items", "PlacedBy").Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepo) CreateItem(ctx context.Context, item *model.OrderItem) error {
	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		return fmt.Errorf("create order item: %w", err)
	}
	return nil
}

func (r *OrderRepo) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("PlacedBy")
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	if err := r.preload(r.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, apperror.FromGorm(err, "order %d not found", id)
	}
	return &o, nil
}

func (r *OrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var o model.Order
	if err := r.preload(r.db.WithContext(ctx)).Where("order_no = ?", orderNo).First(&o).Error; err != nil {
		return nil, apperror.FromGorm(err, "order %q not found", orderNo)
	}
	return &o, nil
}

// OrderQuery 订单列表过滤条件
type OrderQuery struct {
	Status model.OrderStatus
	ID     uint
	UserID uint
}

// List 按创建时间倒序
func (r *OrderRepo) List(ctx context.Context, q OrderQuery) ([]model.Order, error) {
	tx := r.preload(r.db.WithContext(ctx)).Order("created_at DESC").Order("id DESC")
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.ID != 0 {
		tx = tx.Where("id = ?", q.ID)
	}
	if q.UserID != 0 {
		tx = tx.Where("placed_by_id = ?", q.UserID)
	}
	var orders []model.Order
	if err := tx.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus 仅当当前状态仍为 from 时更新, 返回是否更新成功
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update status of order %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateDetails 修改账单、收货地址和运费
func (r *OrderRepo) UpdateDetails(ctx context.Context, id uint, billing, shipping model.Address, fee decimal.Decimal) error {
	o := model.Order{Billing: billing, Shipping: shipping, DeliveryFee: fee}
	res := r.db.WithContext(ctx).Model(&model.Order{ID: id}).
		Select("billing_first_name", "billing_last_name", "billing_address", "billing_city",
			"billing_province", "billing_region", "billing_zip", "billing_phone",
			"shipping_first_name", "shipping_last_name", "shipping_address", "shipping_city",
			"shipping_province", "shipping_region", "shipping_zip", "shipping_phone",
			"delivery_fee").
		Updates(&o)
	if res.Error != nil {
		return fmt.Errorf("update order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("order %d not found", id)
	}
	return nil
}

// CountByStatus 各状态订单数
func (r *OrderRepo) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	out := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// Revenue 指定状态订单的总金额 (明细 + 运费)
func (r *OrderRepo) Revenue(ctx context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Find(&orders).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("load %s orders: %w", status, err)
	}
	total := decimal.Zero
	for i := range orders {
		total = total.Add(orders[i].Total())
	}
	return total, nil
}
