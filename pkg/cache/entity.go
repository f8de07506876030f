package cache

import (
	"context"
	"time"
)

// Entity is a read-through cache of single records keyed by id.
//
// Absent records are never cached: a loader that reports not-found is
// called again on the next Get, because callers often look a record up
// right after another service created it.
type Entity[T any] struct {
	core
	keys  Keyspace
	codec Codec[T]
	ttl   time.Duration
}

// NewEntity creates an entity cache over store. Default TTL: 24 hours.
func NewEntity[T any](store Store, keys Keyspace, opts ...Option) *Entity[T] {
	o := newOptions(keys.Entity, DefaultEntityTTL, opts)
	return &Entity[T]{
		core:  newCore(store, o),
		keys:  keys,
		codec: codecFor[T](o),
		ttl:   o.ttl,
	}
}

// Get returns the cached record for id, or calls load on a miss and caches
// its result. Loader errors are returned unchanged.
func (e *Entity[T]) Get(ctx context.Context, id any, load func(context.Context) (T, error)) (T, error) {
	return fill(ctx, &e.core, e.codec, e.keys.EntityKey(id), e.ttl, load)
}

// Put writes a fresh record through to the cache, e.g. right after creation.
func (e *Entity[T]) Put(ctx context.Context, id any, v T) {
	put(ctx, &e.core, e.codec, e.keys.EntityKey(id), v, e.ttl)
}

// Refresh reloads id unconditionally and overwrites the cached record.
func (e *Entity[T]) Refresh(ctx context.Context, id any, load func(context.Context) (T, error)) error {
	_, err := refill(ctx, &e.core, e.codec, e.keys.EntityKey(id), e.ttl, load)
	return err
}

// Invalidate removes the cached records. Mutation paths call it before
// reporting success so no read after the mutation sees the old record.
func (e *Entity[T]) Invalidate(ctx context.Context, ids ...any) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = e.keys.EntityKey(id)
	}
	e.delete(ctx, keys...)
}
