package redis

import (
	"context"
	"fmt"
	"time"

	"gambling-bot/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// CooldownStore implements ports.CooldownStore with fixed-window counters.
type CooldownStore struct {
	client *goredis.Client
	prefix string
}

// NewCooldownStore creates a new Redis-backed cooldown store.
func NewCooldownStore(client *goredis.Client, prefix string) *CooldownStore {
	return &CooldownStore{
		client: client,
		prefix: prefix + "cooldown:",
	}
}

// Allow counts one use of key in the current window.
// It uses INCR + EXPIRE on a key scoped by windowID = now / window.
func (s *CooldownStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.CooldownResult, error) {
	seconds := int64(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	windowID := time.Now().Unix() / seconds
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cooldown incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &ports.CooldownResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * seconds,
	}, nil
}
