// Package cache holds the key/value contract both services use for
// Redis, plus the in-process fallback and the circuit breaker that picks
// between them.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss means the key does not exist. It is not a failure.
	ErrMiss = errors.New("cache: miss")
	// ErrUnavailable means the cache could not be reached and no
	// fallback was configured.
	ErrUnavailable = errors.New("cache: unavailable")
)

// Store is the cache protocol: get, set-with-TTL, increment, expire,
// delete and pattern delete. Set with a zero TTL means no expiry; Expire
// with a non-positive TTL deletes the key, as Redis does.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	DelPattern(ctx context.Context, pattern string) error
	Flush(ctx context.Context) error
}
