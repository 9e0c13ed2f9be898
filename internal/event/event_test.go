package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "storefront.events")
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	assert.Equal(t, []string{"storefront.events:topic"}, ch.declared)

	err = p.Publish(context.Background(), OrderStatusChangedKey, OrderStatusChanged{OrderID: 7, From: "NEW", To: "PROCESSING"})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "storefront.events/order.status_changed", ch.keys[0])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	assert.Equal(t, OrderStatusChangedKey, env.Type)
	assert.NotEmpty(t, env.ID)
	var data OrderStatusChanged
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "PROCESSING", data.To)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherWrapsErrors(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newAMQPPublisher(ch, "x")
	require.NoError(t, err)

	err = p.Publish(context.Background(), OrderPlacedKey, OrderPlaced{OrderNo: "n"})
	assert.ErrorContains(t, err, "publish order.placed")
}

func TestMemoryPublisher(t *testing.T) {
	var m MemoryPublisher
	require.NoError(t, m.Publish(context.Background(), OrderPlacedKey, OrderPlaced{OrderNo: "n"}))
	events := m.Events()
	require.Len(t, events, 1)
	assert.Equal(t, OrderPlacedKey, events[0].RoutingKey)
}
