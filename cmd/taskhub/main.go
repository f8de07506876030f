// Command taskhub runs one or more taskhub services with their cache layer,
// the scheduled cache rebuild and the ops HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/taskhub/internal/config"
	"github.com/dmitrymomot/taskhub/internal/db/migrations"
	"github.com/dmitrymomot/taskhub/internal/ops"
	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/rebuild"
	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/db"
	"github.com/dmitrymomot/taskhub/pkg/health"
	"github.com/dmitrymomot/taskhub/pkg/job"
	"github.com/dmitrymomot/taskhub/pkg/logger"
	"github.com/dmitrymomot/taskhub/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logger, logger.RequestIDExtractor())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("taskhub stopped with error", slog.Any("error", err))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	enabled, err := cfg.Enabled()
	if err != nil {
		return err
	}
	log.Info("starting taskhub", slog.Any("services", enabled))

	// Every acquired resource is released in reverse order when a later
	// bootstrap step fails.
	var acquired []ops.ShutdownHook
	fail := func(err error) error {
		return errors.Join(err, unwind(cfg.ShutdownTimeout, acquired))
	}

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	acquired = append(acquired, db.Shutdown(pool))

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
		return fail(err)
	}
	sqlDB := db.OpenSQL(pool)

	// Without REDIS_REQUIRED_ON_BOOT the client is created lazily and every
	// cache degrades to a passthrough until Redis answers.
	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	acquired = append(acquired, redis.Shutdown(rdb))
	store := cache.NewRedis(rdb,
		cache.WithPrefix(cfg.CacheKeyPrefix),
		cache.WithOpTimeout(cfg.CacheOpTimeout),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := cache.NewMetrics(reg)
	if err != nil {
		return fail(err)
	}

	background := job.NewPool(
		job.WithPoolWorkers(cfg.BackgroundWorkers),
		job.WithPoolQueueSize(cfg.BackgroundQueueSize),
		job.WithPoolLogger(log),
	)
	acquired = append(acquired, background.Shutdown)
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "taskhub_background_dropped_total",
			Help: "Background tasks dropped because the queue was full or closed.",
		}, func() float64 { return float64(background.Dropped()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "taskhub_background_failed_total",
			Help: "Background tasks that returned an error or panicked.",
		}, func() float64 { return float64(background.Failed()) }),
	)

	deps := platform.Deps{
		Store:       store,
		Logger:      log,
		Metrics:     metrics,
		Background:  background,
		TTL:         cfg.TTL,
		WarmOnWrite: cfg.WarmOnWrite,
	}

	svc, err := wireServices(cfg, enabled, sqlDB, deps)
	if err != nil {
		return fail(err)
	}

	rebuilder := cache.NewRebuilder(
		cache.WithLogger(log),
		cache.WithMetrics(metrics),
		cache.WithConcurrency(cfg.RebuildConcurrency),
	)
	rebuilder.Add(svc.sections()...)

	manager, err := job.NewManager(pool,
		job.WithScheduledTask(rebuild.NewDaily(rebuilder, cfg.RebuildSchedule, log)),
		job.WithTask[rebuild.Payload](rebuild.NewOnDemand(rebuilder, log)),
		job.WithQueue(rebuild.Queue, 1),
		job.WithMaxWorkers(cfg.JobWorkers),
		job.WithRunOnStart(cfg.RebuildOnStart),
		job.WithLogger(log),
	)
	if err != nil {
		return fail(err)
	}
	if err := manager.Migrate(ctx); err != nil {
		return fail(err)
	}
	if err := manager.Start(ctx); err != nil {
		return fail(err)
	}

	server := &ops.Server{
		Addr:            cfg.HTTPAddr,
		Logger:          log,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Handler: ops.NewRouter(ops.Routes{
			Logger:   log,
			Gatherer: reg,
			Ready: health.Checks{
				"postgres": db.Healthcheck(pool),
				"jobs":     job.Healthcheck(manager),
			},
			Optional: health.Checks{
				"redis": redis.Healthcheck(rdb),
			},
			Rebuilds: manager,
			Reports:  rebuilder,
		}),
		// Pending invalidations drain before the job manager and the
		// connections they use go away.
		Hooks: []ops.ShutdownHook{
			background.Shutdown,
			manager.Stop,
			redis.Shutdown(rdb),
			db.Shutdown(pool),
			func(ctx context.Context) error {
				logger.Flush(2 * time.Second)
				return nil
			},
		},
	}

	return server.Run(ctx)
}

// unwind runs hooks in reverse order under one timeout and joins their
// errors.
func unwind(timeout time.Duration, hooks []ops.ShutdownHook) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, hook := range slices.Backward(hooks) {
		errs = append(errs, hook(ctx))
	}
	return errors.Join(errs...)
}
