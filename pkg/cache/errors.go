package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is returned by a Store when a key does not exist or has expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("cache: closed")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when a cached payload cannot be decoded.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")

	// ErrRebuildRunning is returned when a rebuild is triggered while another one is in progress.
	ErrRebuildRunning = errors.New("cache: rebuild already running")
)
