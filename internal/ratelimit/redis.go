package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 多实例共享的限流计数
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Incr 窗口内第一次计数时设置过期时间
func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr error: %w", err)
	}
	if count == 1 {
		if err := r.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis pexpire error: %w", err)
		}
		return count, window, nil
	}

	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis pttl error: %w", err)
	}
	// 上次设置过期时间失败，key 永不过期
	if ttl < 0 {
		if err := r.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis pexpire error: %w", err)
		}
		ttl = window
	}
	return count, ttl, nil
}

var _ Store = (*RedisStore)(nil)
