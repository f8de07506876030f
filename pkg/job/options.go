package job

import (
	"context"
	"log/slog"
	"time"
)

// config holds job manager configuration.
type config struct {
	registry   *taskRegistry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []scheduleConfig
	maxWorkers int
	runOnStart bool
}

func newConfig() *config {
	return &config{
		registry: newTaskRegistry(),
		queues:   make(map[string]int),
	}
}

// scheduleConfig holds scheduled task configuration.
type scheduleConfig struct {
	handler  func(context.Context) error
	name     string
	schedule string
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task handler using structural typing.
// The task must implement Name() and Handle(ctx, P) methods.
// The payload type P is inferred from the Handle method signature.
//
// Example:
//
//	type RebuildNow struct{ rebuilder *cache.Rebuilder }
//
//	func (t *RebuildNow) Name() string { return "cache_rebuild" }
//	func (t *RebuildNow) Handle(ctx context.Context, p RebuildPayload) error {
//	    _, err := t.rebuilder.Run(ctx)
//	    return err
//	}
//
//	job.WithTask(rebuild.NewTask(rebuilder, logger))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), &taskWrapper[P, T]{task: task})
	}
}

// WithScheduledTask registers a periodic task using structural typing.
// The task must implement Name(), Schedule(), and Handle(ctx) methods.
// Schedule() returns a 5-field cron expression (min hour day month weekday).
//
// River elects a single leader among all clients sharing the database, so a
// periodic task fires once per tick no matter how many instances run.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}

// WithRunOnStart makes periodic tasks fire once as soon as the manager
// starts, in addition to their schedule.
func WithRunOnStart(enabled bool) Option {
	return func(c *config) {
		c.runOnStart = enabled
	}
}

// WithQueue configures a named queue with the specified number of workers.
//
// Example:
//
//	job.WithQueue("maintenance", 1) // rebuilds never run concurrently
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
// Defaults to 10 if not set.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// PoolOption configures a [Pool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	logger    *slog.Logger
	workers   int
	queueSize int
	timeout   time.Duration
}

// WithPoolWorkers sets the number of goroutines draining the queue.
// Default: 4.
func WithPoolWorkers(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithPoolQueueSize sets how many tasks may wait before Submit starts
// dropping. Default: 256.
func WithPoolQueueSize(n int) PoolOption {
	return func(c *poolConfig) {
		if n >= 0 {
			c.queueSize = n
		}
	}
}

// WithPoolTaskTimeout bounds each task. Default: 30 seconds.
func WithPoolTaskTimeout(d time.Duration) PoolOption {
	return func(c *poolConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPoolLogger sets the logger for dropped and failed tasks.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
