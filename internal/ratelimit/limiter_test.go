package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"pump_bundler/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	rules := map[string]Rule{
		RouteLaunch: {Limit: 3, Window: time.Minute},
		RouteStatus: {Limit: 30, Window: 10 * time.Second},
	}
	store := NewMemoryStore(100, MaxWindow(rules))
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	l := NewLimiter(store, rules)
	ctx := context.Background()

	t.Run("窗口内超过次数被拒绝", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			res, err := l.Allow(ctx, RouteLaunch, "1.1.1.1")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2-i, res.Remaining)
		}
		res, err := l.Allow(ctx, RouteLaunch, "1.1.1.1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, time.Minute, res.ResetIn)
		assert.Equal(t, 60, res.RetryAfterSeconds())
		assert.True(t, errors.Is(res.Err(), common.ErrRateLimited))
	})

	t.Run("不同客户端互不影响", func(t *testing.T) {
		res, err := l.Allow(ctx, RouteLaunch, "2.2.2.2")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("不同路由互不影响", func(t *testing.T) {
		res, err := l.Allow(ctx, RouteStatus, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 29, res.Remaining)
	})

	t.Run("窗口结束后重新计数", func(t *testing.T) {
		now = now.Add(61 * time.Second)
		res, err := l.Allow(ctx, RouteLaunch, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})

	t.Run("未配置的路由不限流", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			res, err := l.Allow(ctx, "unknown", "1.1.1.1")
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}
		assert.NoError(t, Result{Allowed: true}.Err())
	})
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name    string
		resetIn time.Duration
		want    int
	}{
		{"向上取整", 1500 * time.Millisecond, 2},
		{"整秒", 10 * time.Second, 10},
		{"至少1秒", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result{ResetIn: tt.resetIn}.RetryAfterSeconds())
		})
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func TestLimiter_StoreError(t *testing.T) {
	l := NewLimiter(failingStore{}, map[string]Rule{RouteFund: {Limit: 1, Window: time.Second}})
	_, err := l.Allow(context.Background(), RouteFund, "x")
	assert.Error(t, err)
}
