package cache

import (
	"context"
	"time"
)

// Aggregate caches counters and small summaries (dashboards) that are
// expensive to recompute and tolerate staleness. Concurrent
// invalidate/recompute races are accepted: counts are dashboard grade and
// any drift is bounded by the TTL.
type Aggregate struct {
	core
	keys  Keyspace
	count Codec[int64]
	opts  *options
	ttl   time.Duration
}

// NewAggregate creates an aggregate cache over store. Default TTL: 24 hours.
func NewAggregate(store Store, keys Keyspace, opts ...Option) *Aggregate {
	o := newOptions(keys.Collection, DefaultAggregateTTL, opts)
	return &Aggregate{
		core:  newCore(store, o),
		keys:  keys,
		count: countCodec{},
		opts:  o,
		ttl:   o.ttl,
	}
}

// Count returns the cached member count of scope, loading it on a miss.
// The empty scope is the whole collection.
func (a *Aggregate) Count(ctx context.Context, scope Filter, load func(context.Context) (int64, error)) (int64, error) {
	return fill(ctx, &a.core, a.count, a.keys.CountKey(scope), a.ttl, load)
}

// RefreshCount recomputes and overwrites the count of scope.
func (a *Aggregate) RefreshCount(ctx context.Context, scope Filter, load func(context.Context) (int64, error)) error {
	_, err := refill(ctx, &a.core, a.count, a.keys.CountKey(scope), a.ttl, load)
	return err
}

// InvalidateCount removes the counters of the given scopes. Call it on
// every create or delete of a member row.
func (a *Aggregate) InvalidateCount(ctx context.Context, scopes ...Filter) {
	keys := make([]string, len(scopes))
	for i, scope := range scopes {
		keys[i] = a.keys.CountKey(scope)
	}
	a.delete(ctx, keys...)
}

// InvalidateAggregate removes the named aggregates.
func (a *Aggregate) InvalidateAggregate(ctx context.Context, names ...string) {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = a.keys.AggregateKey(name)
	}
	a.delete(ctx, keys...)
}

// GetAggregate returns the named aggregate of a, loading it on a miss.
// It is a function rather than a method because Go methods cannot
// introduce type parameters.
func GetAggregate[V any](ctx context.Context, a *Aggregate, name string, load func(context.Context) (V, error)) (V, error) {
	return fill(ctx, &a.core, codecFor[V](a.opts), a.keys.AggregateKey(name), a.ttl, load)
}

// RefreshAggregate recomputes and overwrites the named aggregate.
func RefreshAggregate[V any](ctx context.Context, a *Aggregate, name string, load func(context.Context) (V, error)) error {
	_, err := refill(ctx, &a.core, codecFor[V](a.opts), a.keys.AggregateKey(name), a.ttl, load)
	return err
}
