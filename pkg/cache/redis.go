package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint passed to SCAN during pattern lookups.
const scanCount = 100

// Redis is a [Store] backed by Redis, shared by every service instance.
// The client lifecycle is owned by the caller (see pkg/redis.Open and
// pkg/redis.Shutdown); Redis never closes it.
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedis creates a Redis-backed store.
//
// Example:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := cache.NewRedis(client, cache.WithOpTimeout(time.Second))
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Redis{client: client, opts: o}
}

// Get retrieves the payload stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return data, nil
}

// Set stores value under key.
// Redis interprets a zero expiration as "no expiration", so the negative
// "never expires" TTL is passed through as zero.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}

	return r.client.Set(ctx, r.prefixedKey(key), value, max(ttl, 0)).Err()
}

// Delete removes the given keys with a single DEL.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := r.bounded(ctx)
	defer cancel()

	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.prefixedKey(key)
	}

	return r.client.Del(ctx, full...).Err()
}

// Keys returns all keys matching pattern using SCAN, which does not block
// the server the way KEYS does. Returned keys have the store prefix removed.
func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var (
		cursor uint64
		keys   []string
	)

	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefixedKey(pattern), scanCount).Result()
		if err != nil {
			return nil, err
		}

		for _, key := range batch {
			keys = append(keys, r.unprefixedKey(key))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// bounded applies the per-operation timeout so a slow Redis degrades to a
// miss instead of stalling the request.
func (r *Redis) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opts.opTimeout)
}

func (r *Redis) prefixedKey(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

func (r *Redis) unprefixedKey(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return key[len(r.opts.prefix)+1:]
}

var _ Store = (*Redis)(nil)
