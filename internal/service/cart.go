package service

import (
	"context"
	"fmt"

	"go-storefront/internal/cart"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"

	"github.com/shopspring/decimal"
)

type CartService struct {
	catalog     *repository.CatalogRepo
	store       cart.Store
	deliveryFee decimal.Decimal
}

func NewCartService(catalog *repository.CatalogRepo, store cart.Store, deliveryFee decimal.Decimal) *CartService {
	return &CartService{catalog: catalog, store: store, deliveryFee: deliveryFee}
}

// Load 读取会话购物车
func (s *CartService) Load(ctx context.Context, sessionID string) (*cart.State, error) {
	return s.store.Load(ctx, sessionID)
}

// Add 设置 SKU 的数量 (覆盖原数量), 不能超过当前库存
func (s *CartService) Add(ctx context.Context, sessionID string, st *cart.State, sku string, quantity int) error {
	if quantity < 1 {
		return apperror.ValidationField("quantity", "quantity must be at least 1")
	}
	if _, err := s.catalog.GetProduct(ctx, sku); err != nil {
		return err
	}
	available, err := s.catalog.AvailableStock(ctx, sku)
	if err != nil {
		return err
	}
	if quantity > available {
		return apperror.ValidationField("quantity",
			fmt.Sprintf("only %d item(s) available", available))
	}

	st.Set(sku, quantity)
	return s.store.Save(ctx, sessionID, st)
}

// Remove SKU 不在购物车中时返回 NotFound
func (s *CartService) Remove(ctx context.Context, sessionID string, st *cart.State, sku string) error {
	if !st.Remove(sku) {
		return apperror.NotFound("%q is not in the cart", sku)
	}
	return s.store.Save(ctx, sessionID, st)
}

type CartEntry struct {
	Product   model.Product   `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Entries       []CartEntry     `json:"entries"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalQuantity int             `json:"total_qty"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
}

// View 按当前商品价格计算金额; 已从目录删除的商品不计入
func (s *CartService) View(ctx context.Context, st *cart.State) (*CartView, error) {
	skus := st.SKUs()
	products, err := s.catalog.GetProductsBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	v := &CartView{
		Entries:     make([]CartEntry, 0, len(skus)),
		Subtotal:    decimal.Zero,
		DeliveryFee: s.deliveryFee,
	}
	for _, sku := range skus {
		p, ok := products[sku]
		if !ok {
			continue
		}
		q, _ := st.Quantity(sku)
		line := p.UnitPrice.Mul(decimal.NewFromInt(int64(q)))
		v.Entries = append(v.Entries, CartEntry{Product: p, Quantity: q, LineTotal: line})
		v.Subtotal = v.Subtotal.Add(line)
		v.TotalQuantity += q
	}
	v.Total = v.Subtotal.Add(s.deliveryFee)
	return v, nil
}
