package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// CacheCoordinator puts a read-through, write-invalidate cache in front of
// expensive store reads. The cache is never authoritative: every failure to
// read it is a miss and every failure to write it is logged and dropped.
type CacheCoordinator struct {
	cache   port.CacheRepository
	log     *zap.Logger
	timeout time.Duration

	group singleflight.Group

	mu     sync.Mutex
	flight map[string]*keyFlight
}

// keyFlight tracks invalidations of a key while computes for it are running.
// The entry is dropped once the last compute finishes.
type keyFlight struct {
	gen      uint64
	inflight int
}

// NewCacheCoordinator wraps cache. A positive timeout bounds every cache call.
func NewCacheCoordinator(cache port.CacheRepository, log *zap.Logger, timeout time.Duration) *CacheCoordinator {
	return &CacheCoordinator{
		cache:   cache,
		log:     log,
		timeout: timeout,
		flight:  make(map[string]*keyFlight),
	}
}

// GetOrCompute returns the value cached under key, or runs compute and caches
// its JSON encoding for ttl. Hits do not refresh the TTL.
//
// A compute result of domain.ErrNotFound (or any other error) is returned
// as-is and nothing is cached. Concurrent misses on the same key share one
// compute call. The shared call is detached from any single caller's
// cancellation; each caller stops waiting when its own ctx is done.
func GetOrCompute[T any](ctx context.Context, c *CacheCoordinator, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok := c.lookup(ctx, key); ok {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil {
			c.log.Debug("cache hit", zap.String("key", key))
			return v, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}

	c.log.Debug("cache miss", zap.String("key", key))

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		gen := c.begin(key)
		defer c.end(key)

		v, err := compute(shared)
		if err != nil {
			return nil, err
		}

		c.populate(shared, key, gen, v, ttl)
		return v, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if res.Err != nil {
		return zero, res.Err
	}

	out, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: cache key %s shared by incompatible types", domain.ErrInternal, key)
	}
	return out, nil
}

// Invalidate deletes key. Deleting an absent key succeeds. A compute already
// in flight for key will not leave its result in the cache once Invalidate
// has been called.
func (c *CacheCoordinator) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	if f, ok := c.flight[key]; ok {
		f.gen++
	}
	c.mu.Unlock()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete cache key %s: %w", key, err)
	}
	c.log.Debug("cache invalidated", zap.String("key", key))
	return nil
}

func (c *CacheCoordinator) lookup(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed, falling through to store", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, ok
}

// populate writes v unless key was invalidated since gen was taken. The
// generation is checked again after the write: an Invalidate that ran
// between the first check and Set has its delete repeated here.
func (c *CacheCoordinator) populate(ctx context.Context, key string, gen uint64, v any, ttl time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Error("encode cache payload", zap.String("key", key), zap.Error(err))
		return
	}

	if c.stale(key, gen) {
		c.log.Debug("key invalidated during compute, not caching", zap.String("key", key))
		return
	}

	sctx, cancel := c.bound(ctx)
	err = c.cache.Set(sctx, key, payload, ttl)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Warn("cache write timed out", zap.String("key", key))
			return
		}
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}

	if c.stale(key, gen) {
		dctx, cancel := c.bound(ctx)
		defer cancel()
		if err := c.cache.Delete(dctx, key); err != nil {
			c.log.Warn("failed to drop entry invalidated during write", zap.String("key", key), zap.Error(err))
		}
	}
}

func (c *CacheCoordinator) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.flight[key]
	if !ok {
		f = &keyFlight{}
		c.flight[key] = f
	}
	f.inflight++
	return f.gen
}

func (c *CacheCoordinator) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.flight[key]
	f.inflight--
	if f.inflight == 0 {
		delete(c.flight, key)
	}
}

func (c *CacheCoordinator) stale(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flight[key].gen != gen
}

func (c *CacheCoordinator) tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.flight)
}

func (c *CacheCoordinator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
