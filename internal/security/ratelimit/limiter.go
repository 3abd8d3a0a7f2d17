package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	cleanup *time.Ticker
	done    chan struct{}
	exited  chan struct{}
	stop    sync.Once
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows burst requests at once and refills at perSecond.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		now:     time.Now,
	}
	go l.cleanupStaleBuckets()
	return l
}

// PerWindow builds a limiter allowing n requests per window per key.
func PerWindow(n int, window time.Duration) *Limiter {
	return NewLimiter(float64(n)/window.Seconds(), n)
}

// Allow reports whether key may make a request now. Empty keys are not limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int { return l.burst }

func (l *Limiter) cleanupStaleBuckets() {
	defer close(l.exited)
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			stale := l.now().Add(-15 * time.Minute)
			for key, b := range l.buckets {
				if b.lastSeen.Before(stale) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine and waits for it. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stop.Do(func() {
		l.cleanup.Stop()
		close(l.done)
	})
	<-l.exited
}
