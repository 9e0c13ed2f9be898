package repository

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/pkg/apperror"

	"gorm.io/gorm"
)

type WishlistRepo struct {
	db *gorm.DB
}

func NewWishlistRepo(db *gorm.DB) *WishlistRepo {
	return &WishlistRepo{db: db}
}

func (r *WishlistRepo) Find(ctx context.Context, userID uint, sku string) (*model.WishlistItem, error) {
	var item model.WishlistItem
	err := r.db.WithContext(ctx).Where("user_id = ? AND product_sku = ?", userID, sku).First(&item).Error
	if err != nil {
		return nil, apperror.FromGorm(err, "%q is not in the wishlist", sku)
	}
	return &item, nil
}

func (r *WishlistRepo) Create(ctx context.Context, item *model.WishlistItem) error {
	return r.db.WithContext(ctx).Omit("User", "Product").Create(item).Error
}

// Delete 删除用户的某条收藏, 返回删除行数
func (r *WishlistRepo) Delete(ctx context.Context, userID uint, sku string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND product_sku = ?", userID, sku).Delete(&model.WishlistItem{})
	return res.RowsAffected, res.Error
}

// ListByUser 按加入顺序
func (r *WishlistRepo) ListByUser(ctx context.Context, userID uint) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Product.Inventories").
		Where("user_id = ?", userID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list wishlist of %d: %w", userID, err)
	}
	return items, nil
}

// Search 后台: 按用户姓名或商品标题过滤
func (r *WishlistRepo) Search(ctx context.Context, search string) ([]model.WishlistItem, error) {
	tx := r.db.WithContext(ctx).
		Preload("User").
		Preload("Product").
		Order("wishlist_items.id")
	if search != "" {
		pattern := ContainsPattern(search)
		tx = tx.
			Joins("JOIN users ON users.id = wishlist_items.user_id").
			Joins("JOIN products ON products.sku = wishlist_items.product_sku").
			Where("LOWER(users.first_name) LIKE ? ESCAPE '!' OR LOWER(users.last_name) LIKE ? ESCAPE '!' OR LOWER(products.title) LIKE ? ESCAPE '!'",
				pattern, pattern, pattern)
	}
	var items []model.WishlistItem
	if err := tx.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search wishlist: %w", err)
	}
	return items, nil
}
