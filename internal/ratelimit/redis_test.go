package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要本地 redis，连接不上时跳过
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis 不可用: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStore_Incr(t *testing.T) {
	rdb := newTestRedis(t)
	store := NewRedisStore(rdb)
	ctx := context.Background()
	key := fmt.Sprintf("ratelimit:test:%d", time.Now().UnixNano())
	defer rdb.Del(ctx, key)

	count, ttl, err := store.Incr(ctx, key, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 2*time.Second, ttl)

	count, ttl, err = store.Incr(ctx, key, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, ttl > 0 && ttl <= 2*time.Second)

	l := NewLimiter(store, map[string]Rule{RouteLaunch: {Limit: 1, Window: time.Second}})
	client := fmt.Sprintf("c-%d", time.Now().UnixNano())
	defer rdb.Del(ctx, "ratelimit:launch:"+client)

	res, err := l.Allow(ctx, RouteLaunch, client)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = l.Allow(ctx, RouteLaunch, client)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
