package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssuanceLimiter caps how often a confirmation code may be requested for the
// same address.
type IssuanceLimiter interface {
	// Allow returns ErrTooManyRequests when the key is over its budget.
	Allow(ctx context.Context, key string) error
}

// redisIssuanceLimiter implements a fixed-window counter with INCR+EXPIRE.
// The window lives in redis so the limit holds across instances. Redis being
// unavailable must not take registration down with it, so errors fail open.
type redisIssuanceLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *slog.Logger
}

func NewRedisIssuanceLimiter(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) IssuanceLimiter {
	return &redisIssuanceLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (l *redisIssuanceLimiter) Allow(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("confirmation_code:issued:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("issuance limiter unavailable, allowing request", "error", err)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("failed to set issuance window expiry", "key", redisKey, "error", err)
		}
	}
	if count > l.limit {
		return ErrTooManyRequests
	}
	return nil
}

// noopIssuanceLimiter is used when no redis instance is configured.
type noopIssuanceLimiter struct{}

func NewNoopIssuanceLimiter() IssuanceLimiter {
	return noopIssuanceLimiter{}
}

func (noopIssuanceLimiter) Allow(ctx context.Context, key string) error {
	return nil
}
