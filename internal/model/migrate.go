package model

import "gorm.io/gorm"

// AutoMigrate 建表, 按依赖顺序
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Product{},
		&ProductImage{},
		&Location{},
		&Inventory{},
		&Order{},
		&OrderItem{},
		&WishlistItem{},
	)
}
