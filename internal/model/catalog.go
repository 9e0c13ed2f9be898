package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPrice decimal(7,2) 能表示的最大金额
var MaxPrice = decimal.RequireFromString("99999.99")

// Category 商品分类, slug 为主键
type Category struct {
	Slug        string    `gorm:"primaryKey;type:varchar(64)" json:"slug"`
	Name        string    `gorm:"type:varchar(64);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product 商品, SKU 为主键
type Product struct {
	SKU          string          `gorm:"column:sku;primaryKey;type:varchar(64)" json:"sku"`
	CategorySlug *string         `gorm:"type:varchar(64);index" json:"category_slug"`
	Category     *Category       `gorm:"foreignKey:CategorySlug;references:Slug;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category,omitempty"`
	Title        string          `gorm:"type:varchar(64);not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description"`
	Body         string          `gorm:"type:text" json:"body"` // 富文本详情
	UnitCost     decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"unit_cost"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"unit_price"`
	IsEnabled    bool            `gorm:"not null;default:false;index" json:"is_enabled"`
	Images       []ProductImage  `gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Inventories  []Inventory     `gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE" json:"inventories,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AvailableStock 已加载库存行的合计
func (p *Product) AvailableStock() int {
	total := 0
	for _, inv := range p.Inventories {
		total += inv.UnitsInStock
	}
	return total
}

// IsInStock 任一库存行有货即为有货
func (p *Product) IsInStock() bool {
	for _, inv := range p.Inventories {
		if inv.IsInStock() {
			return true
		}
	}
	return false
}

// ProductImage 商品图片, image 为资源地址
type ProductImage struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ProductSKU string `gorm:"column:product_sku;type:varchar(64);not null;index" json:"product_sku"`
	Image      string `gorm:"type:varchar(255);not null" json:"image"`
}

// Location 仓库/门店
type Location struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(64);not null" json:"name"`
	Address  string `gorm:"type:varchar(255)" json:"address"`
	City     string `gorm:"type:varchar(255)" json:"city"`
	Province string `gorm:"type:varchar(255)" json:"province"`
	Region   string `gorm:"type:varchar(255)" json:"region"`

	Inventories []Inventory `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE" json:"-"`
}

// Inventory 某商品在某地点的库存
type Inventory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocationID   uint      `gorm:"not null;uniqueIndex:uni_location_product" json:"location_id"`
	Location     *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	ProductSKU   string    `gorm:"column:product_sku;type:varchar(64);not null;uniqueIndex:uni_location_product;index" json:"product_sku"`
	UnitsInStock int       `gorm:"not null;default:0" json:"units_in_stock"`
}

func (i *Inventory) IsInStock() bool {
	return i.UnitsInStock > 0
}

// ValidPrice 非负, 最多两位小数, 不超过 decimal(7,2)
func ValidPrice(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	if !d.Equal(d.Round(2)) {
		return false
	}
	return d.LessThanOrEqual(MaxPrice)
}

func (Category) TableName() string {
	return "categories"
}

func (Product) TableName() string {
	return "products"
}

func (ProductImage) TableName() string {
	return "product_images"
}

func (Location) TableName() string {
	return "locations"
}

func (Inventory) TableName() string {
	return "inventories"
}
