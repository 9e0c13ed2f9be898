package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSetReplaces(t *testing.T) {
	s := NewState()
	s.Set("B", 1)
	s.Set("A", 2)
	s.Set("A", 5)

	q, ok := s.Quantity("A")
	assert.True(t, ok)
	assert.Equal(t, 5, q)
	assert.Equal(t, []string{"A", "B"}, s.SKUs())
	assert.Equal(t, 6, s.TotalQuantity())

	s.Set("B", 0)
	_, ok = s.Quantity("B")
	assert.False(t, ok)

	assert.True(t, s.Remove("A"))
	assert.False(t, s.Remove("A"))
	assert.True(t, s.IsEmpty())
}

func TestDecodeRejectsBadQuantities(t *testing.T) {
	s, err := Decode(map[string]string{"A": "2", "B": "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = Decode(map[string]string{"A": "0"})
	assert.Error(t, err)
	_, err = Decode(map[string]string{"A": "-1"})
	assert.Error(t, err)
	_, err = Decode(map[string]string{"A": "two"})
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsEmpty())

	s := NewState()
	s.Set("A", 1)
	got := FromContext(NewContext(context.Background(), s))
	assert.Same(t, s, got)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	store := NewRedisStore(rdb, time.Hour)

	empty, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	s := NewState()
	s.Set("A", 2)
	s.Set("B", 1)
	require.NoError(t, store.Save(ctx, "sess", s))
	assert.Equal(t, "2", mr.HGet("cart:sess", "A"))
	assert.Equal(t, time.Hour, mr.TTL("cart:sess"))

	s.Remove("A")
	require.NoError(t, store.Save(ctx, "sess", s))
	loaded, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, loaded.SKUs())

	s.Remove("B")
	require.NoError(t, store.Save(ctx, "sess", s))
	assert.False(t, mr.Exists("cart:sess"))
}

func TestRedisStoreLoadCorrupt(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	mr.HSet("cart:sess", "A", "0")
	_, err := NewRedisStore(rdb, 0).Load(context.Background(), "sess")
	assert.Error(t, err)
}
