package repository

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInsufficientStock 所有库存行合计不足
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockChanged 扣减期间库存被并发修改
	ErrStockChanged = errors.New("stock changed concurrently")
)

type InventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

func (r *InventoryRepo) WithTx(tx *gorm.DB) *InventoryRepo {
	return &InventoryRepo{db: tx}
}

// Deduct 从有货的库存行按 ID 顺序扣减 quantity, 一行不够时继续扣下一行
// 必须在事务中调用, 出错时由调用方回滚已扣减的行
func (r *InventoryRepo) Deduct(ctx context.Context, sku string, quantity int) error {
	db := r.db.WithContext(ctx)

	var rows []model.Inventory
	if err := db.Where("product_sku = ? AND units_in_stock > 0", sku).Order("id").Find(&rows).Error; err != nil {
		return fmt.Errorf("load inventory of %s: %w", sku, err)
	}

	remaining := quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		take := min(row.UnitsInStock, remaining)

		// 条件更新, 并发扣减不会把库存扣成负数
		res := db.Model(&model.Inventory{}).
			Where("id = ? AND units_in_stock >= ?", row.ID, take).
			Update("units_in_stock", gorm.Expr("units_in_stock - ?", take))
		if res.Error != nil {
			return fmt.Errorf("deduct inventory %d: %w", row.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStockChanged
		}
		remaining -= take
	}

	if remaining > 0 {
		return ErrInsufficientStock
	}
	return nil
}

// ListForProduct 商品的全部库存行, 含地点
func (r *InventoryRepo) ListForProduct(ctx context.Context, sku string) ([]model.Inventory, error) {
	var rows []model.Inventory
	err := r.db.WithContext(ctx).Preload("Location").
		Where("product_sku = ?", sku).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory of %s: %w", sku, err)
	}
	return rows, nil
}

// SetStock 写入某地点的库存数量, 行不存在时创建
func (r *InventoryRepo) SetStock(ctx context.Context, locationID uint, sku string, units int) (*model.Inventory, error) {
	inv := model.Inventory{LocationID: locationID, ProductSKU: sku, UnitsInStock: units}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "product_sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"units_in_stock"}),
	}).Create(&inv).Error
	if err != nil {
		return nil, fmt.Errorf("set stock of %s at %d: %w", sku, locationID, err)
	}

	var saved model.Inventory
	err = r.db.WithContext(ctx).
		Where("location_id = ? AND product_sku = ?", locationID, sku).
		First(&saved).Error
	if err != nil {
		return nil, apperror.FromGorm(err, "inventory of %q at location %d not found", sku, locationID)
	}
	return &saved, nil
}

// ---- 地点 ----

func (r *InventoryRepo) ListLocations(ctx context.Context, search string) ([]model.Location, error) {
	tx := r.db.WithContext(ctx).Order("name").Order("id")
	if search != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!'", ContainsPattern(search))
	}
	var locations []model.Location
	if err := tx.Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (r *InventoryRepo) GetLocation(ctx context.Context, id uint) (*model.Location, error) {
	var loc model.Location
	if err := r.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		return nil, apperror.FromGorm(err, "location %d not found", id)
	}
	return &loc, nil
}

func (r *InventoryRepo) CreateLocation(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

// UpdateLocation 调用方需先确认地点存在, 值未变化时 MySQL 返回的影响行数为 0
func (r *InventoryRepo) UpdateLocation(ctx context.Context, loc *model.Location) error {
	res := r.db.WithContext(ctx).Model(&model.Location{}).Where("id = ?", loc.ID).Updates(map[string]interface{}{
		"name":     loc.Name,
		"address":  loc.Address,
		"city":     loc.City,
		"province": loc.Province,
		"region":   loc.Region,
	})
	if res.Error != nil {
		return fmt.Errorf("update location %d: %w", loc.ID, res.Error)
	}
	return nil
}

// DeleteLocation 连同该地点的库存行一起删除
func (r *InventoryRepo) DeleteLocation(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("location_id = ?", id).Delete(&model.Inventory{}).Error; err != nil {
		return fmt.Errorf("delete inventory at %d: %w", id, err)
	}
	res := db.Delete(&model.Location{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete location %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("location %d not found", id)
	}
	return nil
}
