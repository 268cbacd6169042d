package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemoryEntries = 10000

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore 单实例限流，过期条目由 LRU 自动清理
type MemoryStore struct {
	mu      sync.Mutex
	windows *expirable.LRU[string, *windowEntry]
	now     func() time.Time
}

// NewMemoryStore ttl 应不小于最长的限流窗口
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	return &MemoryStore{
		windows: expirable.NewLRU[string, *windowEntry](size, nil, ttl),
		now:     time.Now,
	}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.windows.Get(key)
	if !ok || !now.Before(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(window)}
		m.windows.Add(key, entry)
	}
	entry.count++
	return entry.count, entry.resetAt.Sub(now), nil
}

func (m *MemoryStore) Len() int {
	return m.windows.Len()
}

var _ Store = (*MemoryStore)(nil)
