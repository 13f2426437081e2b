package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts attempts with INCR + EXPIRE so the window is shared
// across all server instances. Redis failures fail open.
type RedisLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisLimiter(client *redis.Client, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		logger: logger.With("component", "rate_limiter"),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limit incr failed, allowing request", "key", key, "error", err)
		return true, nil
	}

	if n == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			l.logger.Warn("rate limit expire failed", "key", key, "error", err)
		}
	}

	return n <= int64(limit), nil
}
