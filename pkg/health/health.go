package health

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultTimeout = 3 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusDegraded indicates only optional checks failed. The cache is
	// optional: with Redis down, services keep serving from the database.
	StatusDegraded = "degraded"
	// StatusUnhealthy indicates a required check failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the Healthcheck closures of pkg/db, pkg/redis and pkg/job.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Response represents a health check response.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check represents the status of a single health check.
type Check struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type config struct {
	logger   *slog.Logger
	optional Checks
	timeout  time.Duration
}

// Option configures health check behavior.
type Option func(*config)

// WithTimeout sets the timeout shared by all checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOptional adds checks whose failure degrades the response without
// making it unhealthy.
func WithOptional(checks Checks) Option {
	return func(c *config) {
		if c.optional == nil {
			c.optional = make(Checks, len(checks))
		}
		for name, check := range checks {
			c.optional[name] = check
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// runChecks executes all checks in parallel and aggregates the result.
func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	if len(checks) == 0 && len(cfg.optional) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu              sync.Mutex
		wg              sync.WaitGroup
		results         = make(map[string]Check, len(checks)+len(cfg.optional))
		failed, degrade bool
	)

	run := func(name string, check CheckFunc, optional bool) {
		defer wg.Done()

		result := Check{Status: StatusHealthy, Optional: optional}
		if err := check(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()
			cfg.logger.WarnContext(ctx, "health check failed",
				slog.String("check", name),
				slog.Bool("optional", optional),
				slog.String("error", err.Error()),
			)
		}

		mu.Lock()
		defer mu.Unlock()
		results[name] = result
		if result.Status == StatusUnhealthy {
			if optional {
				degrade = true
			} else {
				failed = true
			}
		}
	}

	for name, check := range checks {
		wg.Add(1)
		go run(name, check, false)
	}
	for name, check := range cfg.optional {
		wg.Add(1)
		go run(name, check, true)
	}

	wg.Wait()

	status := StatusHealthy
	switch {
	case failed:
		status = StatusUnhealthy
	case degrade:
		status = StatusDegraded
	}

	return &Response{
		Status: status,
		Checks: results,
	}
}

// Run executes checks once, e.g. to log dependency status at boot. The
// error is ErrCheckFailed when a required check fails.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Response, error) {
	resp := runChecks(ctx, checks, newConfig(opts...))
	if resp.Status == StatusUnhealthy {
		return resp, ErrCheckFailed
	}
	return resp, nil
}
