package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// core bundles the store with the observability every typed cache shares.
// All store failures are absorbed here: reads degrade to misses, writes and
// deletes are logged at WARN (which reaches Sentry) and counted.
type core struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	name    string
}

func newCore(store Store, o *options) core {
	return core{
		store:   store,
		logger:  o.logger.With(slog.String("cache", o.name)),
		metrics: o.metrics,
		name:    o.name,
	}
}

// read returns the payload under key, or false on miss or store failure.
func (c *core) read(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, ErrNotFound) {
		c.metrics.storeError(c.name, "get")
		c.logger.WarnContext(ctx, "cache read failed, falling back to loader",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return nil, false
}

func (c *core) write(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.metrics.storeError(c.name, "set")
		c.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}

func (c *core) delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.metrics.storeError(c.name, "delete")
		c.logger.WarnContext(ctx, "cache invalidation failed, entries stay stale until TTL",
			slog.Any("keys", keys),
			slog.Any("error", err),
		)
		return
	}
	c.metrics.invalidated(c.name, len(keys))
}

// deletePattern removes every key matching pattern.
func (c *core) deletePattern(ctx context.Context, pattern string) {
	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		c.metrics.storeError(c.name, "keys")
		c.logger.WarnContext(ctx, "cache pattern lookup failed, entries stay stale until TTL",
			slog.String("pattern", pattern),
			slog.Any("error", err),
		)
		return
	}
	c.delete(ctx, keys...)
}

// fill implements read-through: decode on hit, otherwise run load, store the
// result and return it. Loader errors propagate and nothing is cached, so a
// not-found result is re-checked against the source on every call.
func fill[V any](ctx context.Context, c *core, codec Codec[V], key string, ttl time.Duration, load func(context.Context) (V, error)) (V, error) {
	if data, ok := c.read(ctx, key); ok {
		v, err := codec.Decode(data)
		if err == nil {
			c.metrics.hit(c.name)
			return v, nil
		}
		c.metrics.storeError(c.name, "decode")
		c.logger.WarnContext(ctx, "cached payload is corrupt, reloading",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	c.metrics.miss(c.name)
	return refill(ctx, c, codec, key, ttl, load)
}

// refill runs load and overwrites key with the result.
func refill[V any](ctx context.Context, c *core, codec Codec[V], key string, ttl time.Duration, load func(context.Context) (V, error)) (V, error) {
	start := time.Now()
	v, err := load(ctx)
	c.metrics.loaded(c.name, time.Since(start))
	if err != nil {
		c.metrics.loaderError(c.name)
		var zero V
		return zero, err
	}

	put(ctx, c, codec, key, v, ttl)
	return v, nil
}

func put[V any](ctx context.Context, c *core, codec Codec[V], key string, v V, ttl time.Duration) {
	data, err := codec.Encode(v)
	if err != nil {
		c.metrics.storeError(c.name, "encode")
		c.logger.WarnContext(ctx, "cache encode failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return
	}
	c.write(ctx, key, data, ttl)
}
