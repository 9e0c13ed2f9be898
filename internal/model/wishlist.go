package model

import "time"

// WishlistItem 用户收藏的商品, 同一用户同一商品只保留一行
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:uni_user_product" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ProductSKU string    `gorm:"column:product_sku;type:varchar(64);not null;uniqueIndex:uni_user_product" json:"product_sku"`
	Product    *Product  `gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
