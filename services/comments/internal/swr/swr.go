// Package swr is a stale-while-revalidate cache. Fresh entries are served
// directly; stale entries are served immediately while one background
// refresh per key recomputes them; missing entries are computed in the
// caller's goroutine with concurrent misses for the same key coalesced.
package swr

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the value for a key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

type Options struct {
	// Name labels the cache in metrics and logs.
	Name string
	// TTL is the age at which an entry becomes stale. Zero means never stale.
	TTL time.Duration
	// MaxSize bounds the number of entries; least recently used go first.
	MaxSize int
	// RefreshTimeout bounds a background refresh. Defaults to 10s.
	RefreshTimeout time.Duration
	Logger         *zap.Logger
	// Now is the clock; tests replace it.
	Now func() time.Time
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

type Cache[V any] struct {
	name           string
	ttl            time.Duration
	refreshTimeout time.Duration
	log            *zap.Logger
	now            func() time.Time

	// mu orders computed results against explicit writes. seq advances on
	// every Set, Invalidate and Purge; a result computed from token t is
	// dropped if its key was written, or the cache purged, after t.
	mu        sync.Mutex
	seq       uint64
	purgedAt  uint64
	writtenAt map[string]uint64
	entries   *lru.Cache[string, entry[V]]

	misses     singleflight.Group
	refreshing sync.Map
}

func New[V any](opts Options) *Cache[V] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Second
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	entries, err := lru.New[string, entry[V]](opts.MaxSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Cache[V]{
		name:           opts.Name,
		ttl:            opts.TTL,
		refreshTimeout: opts.RefreshTimeout,
		log:            opts.Logger.With(zap.String("cache", opts.Name)),
		now:            opts.Now,
		writtenAt:      make(map[string]uint64),
		entries:        entries,
	}
}

// Get returns the cached value for key, computing it when absent. A stale
// value is returned as is and refreshed in the background.
func (c *Cache[V]) Get(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	if e, ok := c.entries.Get(key); ok {
		if !c.stale(e) {
			cacheRequests.WithLabelValues(c.name, "hit").Inc()
			return e.value, nil
		}
		cacheRequests.WithLabelValues(c.name, "stale").Inc()
		c.refresh(ctx, key, compute)
		return e.value, nil
	}
	cacheRequests.WithLabelValues(c.name, "miss").Inc()
	return c.load(ctx, key, compute)
}

func (c *Cache[V]) load(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	token := c.token()
	ch := c.misses.DoChan(key, func() (any, error) {
		// The computation outlives any single waiter.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		v, err := compute(cctx)
		if err != nil {
			return v, err
		}
		c.store(key, v, token)
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Shared {
			cacheCoalesced.WithLabelValues(c.name).Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) refresh(ctx context.Context, key string, compute ComputeFunc[V]) {
	if _, loaded := c.refreshing.LoadOrStore(key, struct{}{}); loaded {
		cacheCoalesced.WithLabelValues(c.name).Inc()
		return
	}
	token := c.token()
	go func() {
		defer c.refreshing.Delete(key)
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		v, err := compute(rctx)
		if err != nil {
			cacheRefreshErrors.WithLabelValues(c.name).Inc()
			c.log.Warn("swr: background refresh failed", zap.String("key", key), zap.Error(err))
			return
		}
		if !c.store(key, v, token) {
			c.log.Debug("swr: refresh discarded after invalidation", zap.String("key", key))
		}
	}()
}

func (c *Cache[V]) token() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// store writes v unless key was written or the cache purged after token.
func (c *Cache[V]) store(key string, v V, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.purgedAt > token || c.writtenAt[key] > token {
		return false
	}
	c.entries.Add(key, entry[V]{value: v, storedAt: c.now()})
	return true
}

// Set overwrites key unconditionally and resets its age.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.writtenAt[key] = c.seq
	c.entries.Add(key, entry[V]{value: v, storedAt: c.now()})
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.writtenAt[key] = c.seq
	c.entries.Remove(key)
}

// Purge drops every entry and every in-flight result.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.purgedAt = c.seq
	clear(c.writtenAt)
	c.entries.Purge()
}

// Peek reports the cached value without touching recency or staleness.
func (c *Cache[V]) Peek(key string) (V, bool) {
	e, ok := c.entries.Peek(key)
	return e.value, ok
}

func (c *Cache[V]) Len() int { return c.entries.Len() }

func (c *Cache[V]) stale(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}
