// Package cache backs the public catalog listings with short-TTL
// JSON snapshots.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values. A decode failure on read counts
// as a miss, never an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
