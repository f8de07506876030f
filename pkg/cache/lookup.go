package cache

import (
	"context"
	"log/slog"
	"time"
)

// Lookup caches records owned by a sibling service (e.g. a user resolved
// from the user service while building a project).
//
// Remote failures never escape: a timeout, non-200 response or malformed
// body resolves to "absent" and is not cached, so the next call retries the
// fetcher. Successful results live for the lookup TTL; the owning service
// has no hook into this cache, so staleness is bounded only by that TTL.
//
// Concurrent resolutions of the same uncached id are not deduplicated.
// Fetchers are idempotent and an occasional duplicate call is cheaper than
// coordinating callers.
type Lookup[T any] struct {
	core
	keys    Keyspace
	codec   Codec[T]
	ttl     time.Duration
	timeout time.Duration
}

// NewLookup creates a cross-service lookup cache. Keys are
// "{entity}:external:{id}". Default TTL: 1 hour; default fetch timeout: 3s.
func NewLookup[T any](store Store, keys Keyspace, opts ...Option) *Lookup[T] {
	o := newOptions(keys.Entity+":external", DefaultLookupTTL, opts)
	return &Lookup[T]{
		core:    newCore(store, o),
		keys:    keys,
		codec:   codecFor[T](o),
		ttl:     o.ttl,
		timeout: o.timeout,
	}
}

// Resolve returns the remote record for id and true, or the zero value and
// false when it is absent or the sibling service could not be reached.
func (l *Lookup[T]) Resolve(ctx context.Context, id any, fetch func(context.Context) (T, error)) (T, bool) {
	key := l.keys.ExternalKey(id)

	v, err := fill(ctx, &l.core, l.codec, key, l.ttl, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()
		return fetch(ctx)
	})
	if err != nil {
		l.logger.WarnContext(ctx, "remote lookup failed, treating as absent",
			slog.String("key", key),
			slog.Any("error", err),
		)
		var zero T
		return zero, false
	}

	return v, true
}

// Forget drops cached remote records, e.g. when the caller learns that its
// copy is outdated.
func (l *Lookup[T]) Forget(ctx context.Context, ids ...any) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = l.keys.ExternalKey(id)
	}
	l.delete(ctx, keys...)
}
