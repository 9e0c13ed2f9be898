// Package cart 会话购物车: SKU -> 数量, 存放在 Redis hash 中
package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// State 一个会话的购物车, 数量恒为正
type State struct {
	items map[string]int
}

func NewState() *State {
	return &State{items: make(map[string]int)}
}

// Set 设置数量, 覆盖原有数量; quantity <= 0 等同于删除
func (s *State) Set(sku string, quantity int) {
	if quantity <= 0 {
		delete(s.items, sku)
		return
	}
	s.items[sku] = quantity
}

// Remove 返回 SKU 原本是否在购物车中
func (s *State) Remove(sku string) bool {
	if _, ok := s.items[sku]; !ok {
		return false
	}
	delete(s.items, sku)
	return true
}

func (s *State) Clear() {
	clear(s.items)
}

func (s *State) Quantity(sku string) (int, bool) {
	q, ok := s.items[sku]
	return q, ok
}

func (s *State) Len() int {
	return len(s.items)
}

func (s *State) IsEmpty() bool {
	return len(s.items) == 0
}

// SKUs 按字典序
func (s *State) SKUs() []string {
	skus := make([]string, 0, len(s.items))
	for sku := range s.items {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// TotalQuantity 所有条目数量之和
func (s *State) TotalQuantity() int {
	total := 0
	for _, q := range s.items {
		total += q
	}
	return total
}

// Encode 转为 Redis hash 字段
func (s *State) Encode() map[string]interface{} {
	fields := make(map[string]interface{}, len(s.items))
	for sku, q := range s.items {
		fields[sku] = strconv.Itoa(q)
	}
	return fields
}

// Decode 从 Redis hash 还原, 数量必须是正整数
func Decode(fields map[string]string) (*State, error) {
	s := NewState()
	for sku, raw := range fields {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("cart entry %s: invalid quantity %q: %w", sku, raw, err)
		}
		if q <= 0 {
			return nil, fmt.Errorf("cart entry %s: quantity must be positive, got %d", sku, q)
		}
		s.items[sku] = q
	}
	return s, nil
}

type ctxKey struct{}

// NewContext 把购物车放入请求上下文
func NewContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext 取不到时返回空购物车
func FromContext(ctx context.Context) *State {
	if s, ok := ctx.Value(ctxKey{}).(*State); ok && s != nil {
		return s
	}
	return NewState()
}
