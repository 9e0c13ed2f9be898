package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 购物车持久化
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, s *State) error
	Delete(ctx context.Context, sessionID string) error
}

// Key 会话购物车的 Redis key
func Key(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore ttl 与会话有效期一致, 每次保存时续期
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*State, error) {
	fields, err := r.rdb.HGetAll(ctx, Key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return Decode(fields)
}

// Save 整体重写 hash, 空购物车直接删除 key
func (r *RedisStore) Save(ctx context.Context, sessionID string, s *State) error {
	key := Key(sessionID)
	if s.IsEmpty() {
		return r.Delete(ctx, sessionID)
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, s.Encode())
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
