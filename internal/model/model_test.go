package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderNew:        {OrderProcessing, OrderCancelled, OrderDenied},
		OrderProcessing: {OrderDelivering, OrderCancelled},
		OrderDelivering: {OrderDone},
	}

	for _, from := range OrderStatuses {
		for _, to := range OrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, OrderDone.Terminal())
	assert.True(t, OrderDenied.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderNew.Terminal())
	assert.False(t, OrderStatus("SHIPPED").Valid())
	assert.False(t, OrderStatus("SHIPPED").Terminal())
}

func TestOrderTotal(t *testing.T) {
	o := Order{
		DeliveryFee: d("3.00"),
		Items: []OrderItem{
			{UnitPrice: d("10.00"), Quantity: 2},
			{UnitPrice: d("5.00"), Quantity: 1},
		},
	}

	assert.Equal(t, "25.00", o.Subtotal().StringFixed(2))
	assert.Equal(t, "28.00", o.Total().StringFixed(2))
}

func TestValidPrice(t *testing.T) {
	assert.True(t, ValidPrice(d("0")))
	assert.True(t, ValidPrice(d("12.50")))
	assert.True(t, ValidPrice(d("99999.99")))
	assert.False(t, ValidPrice(d("100000.00")))
	assert.False(t, ValidPrice(d("-0.01")))
	assert.False(t, ValidPrice(d("1.005")))
}

func TestProductStock(t *testing.T) {
	p := Product{Inventories: []Inventory{{UnitsInStock: 0}, {UnitsInStock: 4}, {UnitsInStock: 1}}}
	assert.Equal(t, 5, p.AvailableStock())
	assert.True(t, p.IsInStock())

	empty := Product{Inventories: []Inventory{{UnitsInStock: 0}}}
	assert.Equal(t, 0, empty.AvailableStock())
	assert.False(t, empty.IsInStock())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Reyes, Ana", (&User{FirstName: "Ana", LastName: "Reyes"}).DisplayName())
	assert.Equal(t, "ana", (&User{Username: "ana"}).DisplayName())
	assert.True(t, (&User{Role: RoleAdmin}).IsStaff())
	assert.False(t, (&User{Role: RoleUser}).IsStaff())
}
