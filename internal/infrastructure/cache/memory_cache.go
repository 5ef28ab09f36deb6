package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryCache implements shared.Cache using in-memory storage. Suitable for
// single-instance deployments and tests; use RedisCache when multiple
// instances must share state.
type MemoryCache struct {
	entries sync.Map // map[string]*cacheEntry
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e *cacheEntry) isExpired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// MemoryCacheOption is a functional option for configuring the cache
type MemoryCacheOption func(*MemoryCache)

// WithMemoryCacheLogger sets the logger for the cache
func WithMemoryCacheLogger(logger *zap.Logger) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.logger = logger
	}
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	cache := &MemoryCache{
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a value by key. The second return value reports whether the
// key was present and unexpired.
func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true, nil
		}
		// Expired, remove from cache
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	return "", false, nil
}

// Set stores a value with a TTL. A zero TTL stores without expiry.
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

// InvalidatePattern removes all keys matching a glob-style pattern
func (c *MemoryCache) InvalidatePattern(ctx context.Context, pattern string) error {
	var removed int
	c.entries.Range(func(key, _ any) bool {
		if matched, _ := path.Match(pattern, key.(string)); matched {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Invalidated cache entries",
			zap.String("pattern", pattern),
			zap.Int("removed", removed))
	}
	return nil
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *MemoryCache) Count() (count int) {
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

func (c *MemoryCache) doCleanup() {
	var removed int
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("removed", removed))
	}
}

// Ensure MemoryCache implements shared.Cache
var _ shared.Cache = (*MemoryCache)(nil)
