package presence

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Counter stores open-session counts per user.
//
// Increment returns the count after the change. Decrement returns the count
// left, removing the user at zero, or -1 when the user had no session.
type Counter interface {
	Increment(ctx context.Context, userID string) (int64, error)
	Decrement(ctx context.Context, userID string) (int64, error)
	Online(ctx context.Context) ([]string, error)
}

// MemoryCounter keeps counts for a single process. Writers copy the map
// under a mutex and publish it atomically, so Online never takes a lock.
type MemoryCounter struct {
	mu     sync.Mutex
	counts atomic.Pointer[map[string]int64]
}

func NewMemoryCounter() *MemoryCounter {
	c := &MemoryCounter{}
	empty := map[string]int64{}
	c.counts.Store(&empty)
	return c
}

func (c *MemoryCounter) update(fn func(m map[string]int64) int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := *c.counts.Load()
	next := make(map[string]int64, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	n := fn(next)
	c.counts.Store(&next)
	return n
}

func (c *MemoryCounter) Increment(_ context.Context, userID string) (int64, error) {
	return c.update(func(m map[string]int64) int64 {
		m[userID]++
		return m[userID]
	}), nil
}

func (c *MemoryCounter) Decrement(_ context.Context, userID string) (int64, error) {
	return c.update(func(m map[string]int64) int64 {
		n, ok := m[userID]
		if !ok {
			return -1
		}
		n--
		if n <= 0 {
			delete(m, userID)
			return 0
		}
		m[userID] = n
		return n
	}), nil
}

func (c *MemoryCounter) Online(_ context.Context) ([]string, error) {
	snapshot := *c.counts.Load()
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
