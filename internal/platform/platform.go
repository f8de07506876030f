// Package platform carries the dependencies every service package shares:
// the cache store, logging, metrics, TTLs and the background submitter.
package platform

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/logger"
)

// TTLs configures cache lifetimes. Zero values fall back to the cache
// package defaults.
type TTLs struct {
	Entity time.Duration `env:"CACHE_ENTITY_TTL" envDefault:"24h"`
	List   time.Duration `env:"CACHE_LIST_TTL" envDefault:"5m"`
	Count  time.Duration `env:"CACHE_COUNT_TTL" envDefault:"24h"`
	Lookup time.Duration `env:"CACHE_LOOKUP_TTL" envDefault:"1h"`
	// Projects change more often than users, so their lookups expire sooner.
	ProjectLookup time.Duration `env:"CACHE_PROJECT_LOOKUP_TTL" envDefault:"10m"`
	// Notification lists churn quickly and use their own, shorter TTL.
	Notifications time.Duration `env:"CACHE_NOTIFICATION_TTL" envDefault:"10m"`
}

// Submitter accepts fire-and-forget tasks. *job.Pool implements it.
type Submitter interface {
	Submit(ctx context.Context, name string, fn func(context.Context) error) bool
}

// Deps is what a service needs besides its repository.
type Deps struct {
	Store      cache.Store
	Logger     *slog.Logger
	Metrics    *cache.Metrics
	Background Submitter
	TTL        TTLs
	// WarmOnWrite reloads the first page of an affected filter in the
	// background after a write, instead of waiting for the next miss.
	WarmOnWrite bool
}

// Normalize fills unset fields with working defaults.
func (d Deps) Normalize() Deps {
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	if d.Background == nil {
		d.Background = Inline{Logger: d.Logger}
	}
	return d
}

// CacheOptions returns the options shared by every cache of a service.
func (d Deps) CacheOptions(ttl time.Duration, extra ...cache.Option) []cache.Option {
	opts := []cache.Option{
		cache.WithLogger(d.Logger),
		cache.WithMetrics(d.Metrics),
		cache.WithTTL(ttl),
	}
	return append(opts, extra...)
}

// Inline runs every task immediately on the caller's goroutine. Tests and
// one-shot tools use it where a worker pool only adds timing noise.
type Inline struct {
	Logger *slog.Logger
}

// Submit runs fn and always reports acceptance.
func (i Inline) Submit(ctx context.Context, name string, fn func(context.Context) error) bool {
	if err := fn(ctx); err != nil && i.Logger != nil {
		i.Logger.WarnContext(ctx, "background task failed", slog.String("task", name), slog.Any("error", err))
	}
	return true
}
