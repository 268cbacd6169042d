package ratelimit

import (
	"context"
	"fmt"
	"time"

	"pump_bundler/internal/common"
)

// 路由名称，与配置中的 rate_limit.rules 对应
const (
	RouteLaunch  = "launch"
	RouteSell    = "sell"
	RouteReclaim = "reclaim"
	RouteFund    = "fund"
	RouteStatus  = "status"
)

const keyPrefix = "ratelimit"

// Rule 固定窗口限流：Window 内最多 Limit 次
type Rule struct {
	Limit  int
	Window time.Duration
}

// Store 限流计数存储
type Store interface {
	// Incr 当前窗口计数加一，返回加一后的计数和窗口剩余时间
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RetryAfterSeconds 向上取整，最少 1 秒
func (r Result) RetryAfterSeconds() int {
	secs := int((r.ResetIn + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %d 秒后重试", common.ErrRateLimited, r.RetryAfterSeconds())
}

type Limiter struct {
	store Store
	rules map[string]Rule
}

func NewLimiter(store Store, rules map[string]Rule) *Limiter {
	return &Limiter{store: store, rules: rules}
}

// MaxWindow 所有规则中最长的窗口
func MaxWindow(rules map[string]Rule) time.Duration {
	var longest time.Duration
	for _, r := range rules {
		if r.Window > longest {
			longest = r.Window
		}
	}
	return longest
}

// Allow 未配置规则的路由不限流
func (l *Limiter) Allow(ctx context.Context, route, client string) (Result, error) {
	rule, ok := l.rules[route]
	if !ok {
		return Result{Allowed: true, Remaining: -1}, nil
	}

	key := fmt.Sprintf("%s:%s:%s", keyPrefix, route, client)
	count, resetIn, err := l.store.Incr(ctx, key, rule.Window)
	if err != nil {
		return Result{}, fmt.Errorf("限流计数失败: %w", err)
	}
	if count > int64(rule.Limit) {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}
	return Result{Allowed: true, Remaining: rule.Limit - int(count), ResetIn: resetIn}, nil
}
