// Package cache implements the read-through TTL+LRU cache described in
// spec.md §4.8, wrapping github.com/jellydator/ttlcache/v3 rather than
// hand-rolling the LRU-plus-timestamp-table the original composes: the
// library already provides per-entry monotonic TTL, bounded capacity with
// LRU eviction, and a single internal lock, which is exactly the contract
// §4.8 and §9 ask for.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/fenwicklabs/iotwatch/internal/metrics"
)

// Loader resolves a cache miss for key K, returning the error unchanged if
// resolution fails (the caller decides whether to log/drop).
type Loader[K comparable, V any] func(key K) (V, error)

// Cache is a read-through TTL+LRU cache keyed by K, as used for
// device->product, device->standardizer, device->fingerprint,
// device->classifier-ensemble, and device-MAC-list lookups.
type Cache[K comparable, V any] struct {
	name string
	ttl  *ttlcache.Cache[K, V]
	m    *metrics.CacheMetrics
}

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	ttl      time.Duration
	capacity uint64
	metrics  *metrics.CacheMetrics
}

// WithTTL overrides the default 5-minute per-entry TTL.
func WithTTL[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) { c.ttl = d }
}

// WithCapacity overrides the default 128-entry LRU capacity.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) { c.capacity = uint64(n) }
}

// WithMetrics attaches a CacheMetrics instance for hit/miss/eviction counts.
func WithMetrics[K comparable, V any](m *metrics.CacheMetrics) Option[K, V] {
	return func(c *config[K, V]) { c.metrics = m }
}

// New builds a named Cache. name labels the metrics emitted by this
// instance (e.g. "device_product", "standardizer", "fingerprint").
func New[K comparable, V any](name string, opts ...Option[K, V]) *Cache[K, V] {
	cfg := config[K, V]{ttl: 5 * time.Minute, capacity: 128}
	for _, opt := range opts {
		opt(&cfg)
	}

	ttlCache := ttlcache.New[K, V](
		ttlcache.WithTTL[K, V](cfg.ttl),
		ttlcache.WithCapacity[K, V](cfg.capacity),
	)
	go ttlCache.Start()

	c := &Cache[K, V]{name: name, ttl: ttlCache, m: cfg.metrics}
	if c.m != nil {
		ttlCache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, _ *ttlcache.Item[K, V]) {
			c.m.EvictionsTotal.WithLabelValues(c.name).Inc()
		})
	}
	return c
}

// GetOrLoad returns the cached value for key, resolving it via loader on a
// miss or TTL expiry and populating the cache with the fresh value.
func (c *Cache[K, V]) GetOrLoad(key K, loader Loader[K, V]) (V, error) {
	if item := c.ttl.Get(key); item != nil {
		if c.m != nil {
			c.m.HitsTotal.WithLabelValues(c.name).Inc()
		}
		return item.Value(), nil
	}
	if c.m != nil {
		c.m.MissesTotal.WithLabelValues(c.name).Inc()
	}
	value, err := loader(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.ttl.Set(key, value, ttlcache.DefaultTTL)
	return value, nil
}

// Invalidate removes key from the cache immediately, regardless of TTL.
func (c *Cache[K, V]) Invalidate(key K) {
	c.ttl.Delete(key)
}

// Stop shuts down the cache's background TTL-eviction goroutine.
func (c *Cache[K, V]) Stop() {
	c.ttl.Stop()
}
