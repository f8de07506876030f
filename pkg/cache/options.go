package cache

import (
	"io"
	"log/slog"
	"time"
)

// Default TTLs. Entities and counters change rarely relative to reads;
// list pages are invalidated far more often and expire quickly.
const (
	DefaultEntityTTL    = 24 * time.Hour
	DefaultListTTL      = 5 * time.Minute
	DefaultAggregateTTL = 24 * time.Hour
	DefaultLookupTTL    = time.Hour

	DefaultPageSize    = 50
	DefaultMaxPageSize = 100

	DefaultFetchTimeout = 3 * time.Second
)

// Option configures the typed caches ([Entity], [List], [Aggregate],
// [Lookup]) and the [Rebuilder]. Options a component does not use are ignored.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *Metrics
	codec       any
	name        string
	ttl         time.Duration
	timeout     time.Duration
	pageSize    int
	maxPageSize int
	concurrency int
}

func newOptions(name string, ttl time.Duration, opts []Option) *options {
	o := &options{
		name:        name,
		ttl:         ttl,
		timeout:     DefaultFetchTimeout,
		pageSize:    DefaultPageSize,
		maxPageSize: DefaultMaxPageSize,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// WithTTL overrides the component's default TTL.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithLogger sets the logger used to surface absorbed store failures.
// If not set, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithName overrides the cache name used in logs and metric labels.
// Defaults to the keyspace entity name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithCodec replaces the JSON codec. The codec's type must match the value
// type the cache stores (for [List] that is Page[T]); a mismatched codec
// is ignored.
func WithCodec[V any](c Codec[V]) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithFetchTimeout bounds every fetcher call of a [Lookup].
// Default: 3 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPageSize sets the page size used when a caller passes size < 1,
// and the upper bound applied to larger sizes.
// Defaults: 50 and 100.
func WithPageSize(def, maxSize int) Option {
	return func(o *options) {
		if def > 0 {
			o.pageSize = def
		}
		if maxSize >= o.pageSize {
			o.maxPageSize = maxSize
		}
	}
}

// WithConcurrency lets a [Rebuilder] run up to n sections at once.
// Default: 1 (sequential, in registration order).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func codecFor[V any](o *options) Codec[V] {
	if c, ok := o.codec.(Codec[V]); ok {
		return c
	}
	return JSONCodec[V]{}
}
