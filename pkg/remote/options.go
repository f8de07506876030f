package remote

import (
	"log/slog"
	"net/http"
	"time"
)

type options struct {
	httpClient       *http.Client
	logger           *slog.Logger
	name             string
	timeout          time.Duration
	openTimeout      time.Duration
	interval         time.Duration
	minRequests      uint32
	halfOpenRequests uint32
	failureRatio     float64
}

func defaultOptions() *options {
	return &options{
		timeout:          3 * time.Second,
		openTimeout:      30 * time.Second,
		interval:         time.Minute,
		minRequests:      5,
		halfOpenRequests: 1,
		failureRatio:     0.6,
	}
}

// Option configures a [Client].
type Option func(*options)

// WithName names the breaker in logs. Defaults to the base URL host.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds each request when the caller's context has no
// earlier deadline. Default: 3 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger for breaker state changes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBreaker tunes the circuit breaker: it opens once at least
// minRequests calls in the rolling interval failed at failureRatio or more,
// and probes again after openTimeout.
// Defaults: 5 requests, 0.6 ratio, 30 seconds.
func WithBreaker(minRequests uint32, failureRatio float64, openTimeout time.Duration) Option {
	return func(o *options) {
		if minRequests > 0 {
			o.minRequests = minRequests
		}
		if failureRatio > 0 && failureRatio <= 1 {
			o.failureRatio = failureRatio
		}
		if openTimeout > 0 {
			o.openTimeout = openTimeout
		}
	}
}
