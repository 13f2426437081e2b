package ratelimit

import (
	"context"
	"time"
)

// Limiter is a keyed fixed-window counter. Allow increments the counter for
// key and reports whether the caller is still within limit for the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
