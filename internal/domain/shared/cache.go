package shared

import (
	"context"
	"time"
)

// Cache is the capability interface for read-through caching of computed
// values such as resolved exchange rates. Implementations live in the
// infrastructure layer (Redis for deployments, in-memory for tests and
// single-node setups).
type Cache interface {
	// Get returns the cached value for key. The second return value is
	// false when the key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. A zero TTL means the
	// entry does not expire.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// InvalidatePattern removes all keys matching the glob-style pattern,
	// e.g. "rate:tenant-id:*".
	InvalidatePattern(ctx context.Context, pattern string) error

	// Close releases any resources held by the cache.
	Close() error
}
