// Package fetch keeps server-side query results and tracks in-flight mutations
// for the web tier, refreshing cached resources in the background.
package fetch

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a background refresh when none is configured.
const DefaultRefreshTimeout = 10 * time.Second

type entry struct {
	data      any
	err       error
	fetchedAt time.Time
	gen       uint64
	stale     bool
}

// Cache maps resource keys to the last fetch result.
type Cache struct {
	mu             sync.RWMutex
	entries        map[string]*entry
	generations    map[string]uint64
	group          singleflight.Group
	ttl            time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithRefreshTimeout bounds each background refresh.
func WithRefreshTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithLogger sets the logger used to report refresh failures.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache builds a Cache whose entries go stale ttl after they were fetched.
// A non-positive ttl keeps entries until they are invalidated.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		entries:        make(map[string]*entry),
		generations:    make(map[string]uint64),
		ttl:            ttl,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate marks keys stale so the next read refetches them. It satisfies
// cache.Invalidator and never fails.
func (c *Cache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.generations[key]++
		if e, ok := c.entries[key]; ok {
			e.stale = true
		}
		invalidations.WithLabelValues(key).Inc()
	}
	return nil
}

// snapshot returns a copy of the entry for key, whether it needs a refresh,
// and the key's current generation.
func (c *Cache) snapshot(key string) (entry, bool, bool, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gen := c.generations[key]
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false, true, gen
	}
	expired := c.ttl > 0 && c.now().Sub(e.fetchedAt) >= c.ttl
	return *e, true, e.stale || expired || e.err != nil, gen
}

func (c *Cache) store(key string, gen uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[key]; ok && prev.gen > gen {
		return
	}
	e := &entry{data: data, err: err, fetchedAt: c.now(), gen: gen}
	// An invalidation that arrived while the fetch was running wins.
	if c.generations[key] != gen {
		e.stale = true
	}
	c.entries[key] = e
}

// refresh starts (or joins) a fetch of key for the given generation and
// returns a channel that yields when it completes.
func (c *Cache) refresh(key string, gen uint64, fetch func(context.Context) (any, error)) <-chan singleflight.Result {
	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	return c.group.DoChan(flightKey, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		start := c.now()
		data, err := fetch(ctx)
		refreshDuration.WithLabelValues(key).Observe(c.now().Sub(start).Seconds())
		if err != nil {
			refreshes.WithLabelValues(key, "error").Inc()
			c.logger.Warn("refresh failed", "key", key, "error", err)
		} else {
			refreshes.WithLabelValues(key, "success").Inc()
		}
		c.store(key, gen, data, err)
		return data, err
	})
}
