// Package cache defines the byte store used for the shared geocode cache tier.
package cache

import (
	"context"
	"time"
)

type Store interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSetWithTTL(ctx context.Context, kv map[string][]byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
