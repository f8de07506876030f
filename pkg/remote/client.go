package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/dmitrymomot/taskhub/pkg/logger"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Client performs JSON GETs against one sibling service behind a circuit
// breaker. A sibling that keeps failing is short-circuited with
// [ErrUnavailable], so lookup callers fail fast instead of waiting for a
// timeout on every request.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.name == "" {
		o.name = base.Host
	}

	log := o.logger.With(slog.String("remote", o.name))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        o.name,
		MaxRequests: o.halfOpenRequests,
		Interval:    o.interval,
		Timeout:     o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < o.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= o.failureRatio
		},
		// A 404 is a valid answer from a healthy service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		base:    base,
		http:    o.httpClient,
		breaker: breaker,
		logger:  log,
	}, nil
}

// GetJSON requests base+path and decodes a 2xx JSON body into out.
// The request id in ctx, if any, is forwarded as X-Request-ID.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.get(ctx, path, out)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.Join(ErrUnavailable, err)
	default:
		return err
	}
}

// State reports the breaker state, e.g. for readiness output.
func (c *Client) State() string {
	return c.breaker.State().String()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	target := c.base.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := logger.RequestID(ctx); ok {
		req.Header.Set(logger.HeaderRequestID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: GET %s: %w", target.Path, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBody)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, body)
		return fmt.Errorf("%w: GET %s", ErrNotFound, target.Path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, body)
		return fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, target.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}
