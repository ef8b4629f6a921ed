// Package dedupe drops webhook redeliveries by remembering message ids.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wa:msg:"

// RedisDeduper implements core.MessageDeduper with SET NX.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

// FirstSeen records id and reports whether it was new.
func (d *RedisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, keyPrefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe set: %w", err)
	}
	return ok, nil
}
