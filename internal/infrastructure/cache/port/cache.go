package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract consumed by the application.
// Implementations must be safe for concurrent use; all methods honor the
// caller's context for timeouts and cancellation.
type Cache interface {
	// Get returns the value at key, or ErrMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value with the given TTL. Zero or negative TTL means no
	// expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss signals an absent key so callers can tell misses apart from
// transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
