// Package rebuild runs the cache rebuild as background jobs: once a day on
// a cron schedule, and on demand from the ops endpoint.
package rebuild

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/job"
	"github.com/dmitrymomot/taskhub/pkg/logger"
)

const (
	// DailyTaskName is the periodic rebuild task.
	DailyTaskName = "cache_rebuild_daily"
	// TaskName is the on-demand rebuild task.
	TaskName = "cache_rebuild"
	// Queue runs rebuild requests one at a time.
	Queue = "maintenance"
	// DefaultSchedule fires at 02:00 every day.
	DefaultSchedule = "0 2 * * *"
	// Dedup is the window in which repeated rebuild requests collapse into one job.
	Dedup = time.Minute
)

// Runner runs one rebuild. *cache.Rebuilder implements it.
type Runner interface {
	Run(ctx context.Context) (cache.Report, error)
}

// Enqueuer queues a durable job. *job.Manager implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
}

// Payload describes why an on-demand rebuild was requested.
type Payload struct {
	Reason string `json:"reason"`
}

// Daily is the scheduled rebuild.
type Daily struct {
	runner   Runner
	schedule string
	logger   *slog.Logger
}

// NewDaily returns the scheduled rebuild. An empty schedule falls back to
// DefaultSchedule.
func NewDaily(r Runner, schedule string, log *slog.Logger) *Daily {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Daily{runner: r, schedule: schedule, logger: log}
}

func (d *Daily) Name() string     { return DailyTaskName }
func (d *Daily) Schedule() string { return d.schedule }

func (d *Daily) Handle(ctx context.Context) error {
	return run(ctx, d.runner, d.logger, "schedule")
}

// OnDemand is the rebuild requested through [Request].
type OnDemand struct {
	runner Runner
	logger *slog.Logger
}

// NewOnDemand returns the on-demand rebuild task.
func NewOnDemand(r Runner, log *slog.Logger) *OnDemand {
	if log == nil {
		log = logger.Discard()
	}
	return &OnDemand{runner: r, logger: log}
}

func (t *OnDemand) Name() string { return TaskName }

func (t *OnDemand) Handle(ctx context.Context, p Payload) error {
	reason := p.Reason
	if reason == "" {
		reason = "manual"
	}
	return run(ctx, t.runner, t.logger, reason)
}

// Request queues an on-demand rebuild. Requests within Dedup of each other
// produce a single job.
func Request(ctx context.Context, enq Enqueuer, reason string) error {
	return enq.Enqueue(ctx, TaskName, Payload{Reason: reason},
		job.InQueue(Queue),
		job.UniqueFor(Dedup),
	)
}

// run never fails the job for a partial rebuild or an overlapping run:
// retrying would only repeat sections that expire on their own.
func run(ctx context.Context, r Runner, log *slog.Logger, reason string) error {
	log = log.With(slog.String("reason", reason))

	report, err := r.Run(ctx)
	if errors.Is(err, cache.ErrRebuildRunning) {
		log.InfoContext(ctx, "cache rebuild skipped, another run is in progress")
		return nil
	}
	if err != nil {
		return err
	}

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Name
		}
		log.WarnContext(ctx, "cache rebuild finished with failed sections",
			slog.String("run_id", report.RunID),
			slog.Any("failed", names),
		)
	}
	return nil
}
