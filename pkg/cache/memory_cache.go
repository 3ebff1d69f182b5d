package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTTL is the retention period for cached analysis results.
	DefaultTTL = time.Hour

	defaultMaxEntries      = 10000
	defaultCleanupInterval = 5 * time.Minute
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache. Expired entries are reaped by a
// background goroutine and also skipped on read.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	tracer     trace.Tracer

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryCache creates a memory cache holding at most maxEntries items.
// Zero or negative maxEntries selects the default bound.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	c := &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		tracer:     otel.Tracer("autoproof/cache/memory"),
		stop:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_, span := c.tracer.Start(ctx, "cache.get",
		trace.WithAttributes(attribute.String("cache.backend", "memory")))
	defer span.End()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return entry.payload, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, span := c.tracer.Start(ctx, "cache.set",
		trace.WithAttributes(attribute.String("cache.backend", "memory")))
	defer span.End()

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	return nil
}

// Len reports the current entry count, expired entries included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldestLocked removes the entry closest to expiry to make room.
func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.expiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = entry.expiresAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
