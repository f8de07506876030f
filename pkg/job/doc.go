// Package job runs taskhub's background work.
//
// Two mechanisms cover two durability needs:
//
//   - [Pool] is an in-process, bounded queue for fire-and-forget work such as
//     invalidating derived list caches after a write. Tasks are lost on
//     restart and dropped when the queue is full; TTL expiry covers both.
//   - [Manager] wraps River, a Postgres-backed queue, for durable jobs: the
//     daily cache rebuild and rebuilds requested through the ops endpoint.
//
// # Pool
//
//	pool := job.NewPool(job.WithPoolWorkers(4), job.WithPoolLogger(logger))
//	defer pool.Shutdown(ctx)
//
//	pool.Submit(ctx, "tasks.invalidate_lists", func(ctx context.Context) error {
//	    tasks.InvalidateFilter(ctx, cache.By("project", projectID))
//	    return nil
//	})
//
// # Tasks
//
// Tasks are structs with Name() and Handle() methods; no interface import
// is needed. Periodic tasks add Schedule(), a 5-field cron expression:
//
//	func (t *Rebuild) Name() string     { return "cache_rebuild_daily" }
//	func (t *Rebuild) Schedule() string { return "0 2 * * *" }
//	func (t *Rebuild) Handle(ctx context.Context) error { ... }
//
//	manager, err := job.NewManager(pgxPool,
//	    job.WithScheduledTask(daily),
//	    job.WithTask(onDemand),
//	    job.WithQueue("maintenance", 1),
//	    job.WithLogger(logger),
//	)
//	if err := manager.Migrate(ctx); err != nil { ... }
//	if err := manager.Start(ctx); err != nil { ... }
//
// Requests are deduplicated with [UniqueFor]:
//
//	manager.Enqueue(ctx, "cache_rebuild", payload,
//	    job.InQueue("maintenance"),
//	    job.UniqueFor(time.Minute),
//	)
//
// # Errors
//
//   - [ErrUnknownTask]: task name not registered
//   - [ErrInvalidPayload]: payload deserialization failed
//   - [ErrAlreadyStarted], [ErrNotStarted]: lifecycle misuse
//   - [ErrPoolFull], [ErrPoolClosed]: reasons logged for dropped pool tasks
//   - [ErrHealthcheckFailed]: readiness check failed
package job
