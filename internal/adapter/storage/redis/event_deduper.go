package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDeduper implements ports.EventDeduper using Redis SET NX.
type EventDeduper struct {
	client *goredis.Client
	prefix string
}

// NewEventDeduper creates a new Redis-backed deduper.
func NewEventDeduper(client *goredis.Client, prefix string) *EventDeduper {
	return &EventDeduper{
		client: client,
		prefix: prefix + "event:",
	}
}

// FirstSeen atomically marks eventID as seen. It returns false if it already was.
func (d *EventDeduper) FirstSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	result, err := d.client.SetArgs(ctx, d.prefix+eventID, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis event dedup: %w", err)
	}
	return result == "OK", nil
}
