// Package cache implements the read-through / write-invalidate cache shared
// by every taskhub service.
//
// The cache is a disposable projection of the relational store: it owns no
// durable state, every entry can be rebuilt, and staleness is bounded by
// TTL rather than eliminated. A cache outage costs latency, never
// correctness: store failures are absorbed and logged, only loader errors
// reach the caller.
//
// # Stores
//
// A [Store] holds raw bytes with a TTL. [Redis] is the production backend
// shared by all service instances; [Memory] is an in-process LRU store for
// tests and local development:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := cache.NewRedis(client)
//
// # Keys
//
// [Keyspace] builds every key and invalidation pattern for one entity type,
// so fill-time keys and wildcard invalidation always agree:
//
//	ks := cache.NewKeyspace("task", "tasks")
//	ks.EntityKey(7)                                // task:7
//	ks.PageKey(cache.By("project", 42), 2, 50)     // tasks:project:42:page:2:size:50
//	ks.PagePattern(cache.By("project", 42))        // tasks:project:42:page:*
//	ks.CountKey(nil)                               // tasks:count
//
// # Typed caches
//
//   - [Entity] caches single records: Get (read-through), Put, Invalidate.
//   - [List] caches pages of filtered collections: GetPage, InvalidateFilter
//     (every page of the filter), InvalidateAll.
//   - [Aggregate] caches counters and summaries: Count, InvalidateCount,
//     [GetAggregate].
//   - [Lookup] caches records of sibling services; remote failures resolve
//     to absent instead of erroring.
//
// Reads are not serialized: two requests that miss together both load and
// both write; the last write wins.
//
//	task, err := tasks.Get(ctx, id, func(ctx context.Context) (Task, error) {
//	    return repo.FindByID(ctx, id)
//	})
//
// # Rebuilds
//
// [Rebuilder] overwrites caches from the source in sections. A failing
// section is recorded in the [Report] without aborting the others.
//
// # Errors
//
//   - [ErrNotFound]: Store miss (never returned by typed caches)
//   - [ErrMarshal], [ErrUnmarshal]: codec failures, treated as misses
//   - [ErrClosed]: operation on a closed [Memory] store
//   - [ErrRebuildRunning]: overlapping rebuild trigger
package cache
