package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	startAt time.Time
}

// MemoryLimiter is a process-local Limiter used when no Redis is configured
// (ENV=local) and in tests. Not suitable for multi-instance deployments.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use this to expire windows.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= windowDur {
		w = &window{startAt: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
