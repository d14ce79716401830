package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hostelhub/internal/domain"
)

// RedisRateLimiter is a fixed-window counter keyed per actor, shared
// across processes through Redis.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

var _ domain.RateLimiter = (*RedisRateLimiter)(nil)

func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: prefix}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, actorID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

// MemoryRateLimiter is the single-process fallback used when Redis is
// not configured.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

var _ domain.RateLimiter = (*MemoryRateLimiter)(nil)

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{windows: make(map[string]*rateWindow)}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[actorID]
	if !ok || now.After(w.resetAt) {
		l.windows[actorID] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}
	w.count++
	return w.count <= limit, nil
}
