// Package event 领域事件发布
package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 路由键
const (
	OrderPlacedKey        = "order.placed"
	OrderStatusChangedKey = "order.status_changed"
)

type OrderLine struct {
	SKU       string `json:"sku"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderPlaced struct {
	OrderID  uint        `json:"order_id"`
	OrderNo  string      `json:"order_no"`
	UserID   *uint       `json:"user_id,omitempty"`
	Total    string      `json:"total"`
	Items    []OrderLine `json:"items"`
	PlacedAt time.Time   `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Envelope 消息体
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Encode 把事件包装成 JSON 消息
func Encode(routingKey string, payload interface{}, now time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: now.UTC(),
		Data:       data,
	})
}

// Publisher 发布失败不影响业务流程, 由调用方记录日志
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// NopPublisher 未配置消息队列时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }

// MemoryPublisher 在内存中记录事件
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Published
}

type Published struct {
	RoutingKey string
	Payload    interface{}
}

func (m *MemoryPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Published{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events 已发布事件的副本
func (m *MemoryPublisher) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.events...)
}
