package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultPoolWorkers     = 4
	defaultPoolQueueSize   = 256
	defaultPoolTaskTimeout = 30 * time.Second
)

// Pool runs fire-and-forget work (cache invalidation fan-out, page warm-up)
// on a fixed set of goroutines fed by a bounded queue.
//
// Submit never blocks a request: when the queue is full the task is dropped
// and logged. Dropped work is acceptable because every cache entry it would
// have touched still expires by TTL.
type Pool struct {
	queue   chan poolTask
	logger  *slog.Logger
	wg      sync.WaitGroup
	timeout time.Duration
	dropped atomic.Int64
	failed  atomic.Int64
	mu      sync.RWMutex
	closed  bool
}

type poolTask struct {
	ctx  context.Context
	fn   func(context.Context) error
	name string
}

// NewPool starts the workers. Call Shutdown to drain and stop them.
func NewPool(opts ...PoolOption) *Pool {
	cfg := &poolConfig{
		workers:   defaultPoolWorkers,
		queueSize: defaultPoolQueueSize,
		timeout:   defaultPoolTaskTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Pool{
		queue:   make(chan poolTask, cfg.queueSize),
		logger:  cfg.logger,
		timeout: cfg.timeout,
	}

	p.wg.Add(cfg.workers)
	for range cfg.workers {
		go p.work()
	}

	return p
}

// Submit queues fn under name and reports whether it was accepted.
// The task inherits ctx values (request id, service) but not its
// cancellation, so it outlives the request that scheduled it.
func (p *Pool) Submit(ctx context.Context, name string, fn func(context.Context) error) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(ctx, name, ErrPoolClosed)
		return false
	}

	select {
	case p.queue <- poolTask{ctx: context.WithoutCancel(ctx), fn: fn, name: name}:
		return true
	default:
		p.drop(ctx, name, ErrPoolFull)
		return false
	}
}

// Dropped returns the number of tasks rejected so far.
func (p *Pool) Dropped() int64 {
	return p.dropped.Load()
}

// Failed returns the number of tasks that returned an error or panicked.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Shutdown stops accepting tasks, runs what is already queued and waits for
// the workers. It returns ctx.Err() if ctx ends first; queued tasks keep
// running in the background in that case.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrShutdownTimeout, ctx.Err())
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(t)
	}
}

func (p *Pool) run(t poolTask) {
	ctx, cancel := context.WithTimeout(t.ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job: task panicked: %v", r)
			}
		}()
		return t.fn(ctx)
	}()

	if err != nil {
		p.failed.Add(1)
		p.logger.WarnContext(ctx, "background task failed",
			slog.String("task", t.name),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return
	}

	p.logger.DebugContext(ctx, "background task completed",
		slog.String("task", t.name),
		slog.Duration("duration", time.Since(start)),
	)
}

func (p *Pool) drop(ctx context.Context, name string, reason error) {
	p.dropped.Add(1)
	p.logger.WarnContext(ctx, "background task dropped",
		slog.String("task", name),
		slog.Any("reason", reason),
	)
}
