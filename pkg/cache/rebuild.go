package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a [Rebuilder].
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StateSucceeded       State = "succeeded"
	StatePartiallyFailed State = "partially_failed"
)

// Section is one independently failing unit of a rebuild, e.g. "count"
// or "type:Movie page 1".
type Section struct {
	Name string
	Run  func(ctx context.Context) error
}

// SectionResult is the outcome of one section.
type SectionResult struct {
	Err      error         `json:"-"`
	Name     string        `json:"name"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes a rebuild run.
type Report struct {
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	RunID      string          `json:"runId"`
	State      State           `json:"state"`
	Sections   []SectionResult `json:"sections"`
}

// Failed returns the sections that did not complete.
func (r Report) Failed() []SectionResult {
	var failed []SectionResult
	for _, s := range r.Sections {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Rebuilder overwrites caches from the authoritative store, section by
// section. A failing (or panicking) section is recorded and the others
// still run; a run always ends in Succeeded or PartiallyFailed. There is
// no retry inside a run: the next scheduled trigger is the retry.
//
// State machine: Idle -> Running -> {Succeeded, PartiallyFailed}.
type Rebuilder struct {
	logger      *slog.Logger
	metrics     *Metrics
	sections    []Section
	last        Report
	state       State
	concurrency int
	mu          sync.Mutex
}

// NewRebuilder creates an idle rebuilder. Sections are added with [Rebuilder.Add].
func NewRebuilder(opts ...Option) *Rebuilder {
	o := newOptions("rebuild", 0, opts)
	return &Rebuilder{
		logger:      o.logger,
		metrics:     o.metrics,
		state:       StateIdle,
		concurrency: o.concurrency,
	}
}

// Add appends sections. Sequential runs execute them in the order added.
func (r *Rebuilder) Add(sections ...Section) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections = append(r.sections, sections...)
}

// State returns the current state.
func (r *Rebuilder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastReport returns the report of the most recent finished run.
func (r *Rebuilder) LastReport() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.last.RunID != ""
}

// Run executes every section and returns the report. The only error is
// [ErrRebuildRunning], returned when a run is already in progress.
func (r *Rebuilder) Run(ctx context.Context) (Report, error) {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return Report{}, ErrRebuildRunning
	}
	r.state = StateRunning
	sections := append([]Section(nil), r.sections...)
	r.mu.Unlock()

	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Sections:  make([]SectionResult, len(sections)),
	}
	log := r.logger.With(slog.String("run_id", report.RunID))
	log.InfoContext(ctx, "cache rebuild started", slog.Int("sections", len(sections)))

	g := &errgroup.Group{}
	g.SetLimit(r.concurrency)
	for i, s := range sections {
		g.Go(func() error {
			report.Sections[i] = r.runSection(ctx, log, s)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	report.State = StateSucceeded
	if failed := report.Failed(); len(failed) > 0 {
		report.State = StatePartiallyFailed
		log.WarnContext(ctx, "cache rebuild partially failed",
			slog.Int("failed", len(failed)),
			slog.Int("sections", len(sections)),
			slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		)
	} else {
		log.InfoContext(ctx, "cache rebuild finished",
			slog.Int("sections", len(sections)),
			slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		)
	}

	r.mu.Lock()
	r.state = report.State
	r.last = report
	r.mu.Unlock()

	return report, nil
}

func (r *Rebuilder) runSection(ctx context.Context, log *slog.Logger, s Section) (res SectionResult) {
	start := time.Now()
	res.Name = s.Name

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("cache: rebuild section panicked: %v", p)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
			log.ErrorContext(ctx, "cache rebuild section failed",
				slog.String("section", s.Name),
				slog.Any("error", res.Err),
			)
		}
		r.metrics.section(s.Name, res.Err)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Err = s.Run(ctx)
	return res
}

// WarmCount returns a section that recomputes a counter.
func WarmCount(name string, a *Aggregate, scope Filter, load func(context.Context) (int64, error)) Section {
	return Section{Name: name, Run: func(ctx context.Context) error {
		return a.RefreshCount(ctx, scope, load)
	}}
}

// WarmPage returns a section that reloads the first page of a filter at
// the given size.
func WarmPage[T any](name string, l *List[T], f Filter, size int, load PageLoader[T]) Section {
	return Section{Name: name, Run: func(ctx context.Context) error {
		return l.Refresh(ctx, f, 1, size, load)
	}}
}

// WarmAggregate returns a section that recomputes a named aggregate.
func WarmAggregate[V any](name string, a *Aggregate, aggregate string, load func(context.Context) (V, error)) Section {
	return Section{Name: name, Run: func(ctx context.Context) error {
		return RefreshAggregate(ctx, a, aggregate, load)
	}}
}
