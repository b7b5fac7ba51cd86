// Package dedup provides a TTL-indexed cache of event signatures, used to
// suppress re-broadcasting an event this proxy has already forwarded.
//
// The cache is a plain mutex-protected map rather than a channel-owned
// actor: Go's sync.RWMutex is the idiomatic primitive for a map that is
// read far more often than it is written, and every caller already holds
// no other lock while consulting it, so there is no deadlock-ordering
// reason to push access through a goroutine-owned channel instead.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/metrics"
)

// defaultSweepInterval is the cadence of the eviction sweep when none is
// configured.
const defaultSweepInterval = 5 * time.Second

// Cache is a signature -> first-recorded-time map with age-based eviction.
// It is safe for concurrent use.
type Cache struct {
	mu            sync.RWMutex
	entries       map[string]time.Time
	ttl           time.Duration
	sweepInterval time.Duration
}

// NewCache creates a Cache whose entries expire ttl after they were last
// recorded, swept on the given interval by Serve. A non-positive
// sweepInterval falls back to the 5-second default.
func NewCache(ttl, sweepInterval time.Duration) *Cache {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	return &Cache{
		entries:       make(map[string]time.Time),
		ttl:           ttl,
		sweepInterval: sweepInterval,
	}
}

// CheckAndRecord reports whether sig has been seen within the cache's TTL as
// of now. If sig is new (or its prior entry has aged out), it is recorded
// with timestamp now and CheckAndRecord returns false; a duplicate returns
// true without updating its timestamp, so repeated rebroadcasts of the same
// signature do not perpetually extend its lifetime.
func (c *Cache) CheckAndRecord(sig string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	seenAt, ok := c.entries[sig]
	if ok && now.Sub(seenAt) < c.ttl {
		return true
	}
	c.entries[sig] = now
	return false
}

// Size returns the number of entries currently held, including any not yet
// swept past their TTL.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// sweep removes every entry older than the cache's TTL as of now.
func (c *Cache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for sig, seenAt := range c.entries {
		if now.Sub(seenAt) >= c.ttl {
			delete(c.entries, sig)
			removed++
		}
	}
	return removed
}

// Serve runs the independent sweep loop until ctx is canceled. It is
// designed to be wrapped as a suture.Service alongside every other
// long-running component of the proxy.
func (c *Cache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			removed := c.sweep(now)
			size := c.Size()
			metrics.SetDedupCacheSize(size)
			if removed > 0 {
				logging.Debug().Int("removed", removed).Int("size", size).Msg("dedup sweep evicted entries")
			}
		}
	}
}
