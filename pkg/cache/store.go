package cache

import (
	"context"
	"time"
)

// Store is the key/value backend shared by every cache in this package.
// Values are opaque bytes; typed access goes through a [Codec].
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the store's configured default TTL
//   - Negative: entry never expires
//
// Every call may fail (network, timeout). The caches built on top of a Store
// treat a failed Get as a miss and log failed writes; they never return
// store errors to their callers.
type Store interface {
	// Get returns the raw payload stored under key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys returns all keys matching a glob pattern (e.g. "tasks:project:42:page:*").
	// Used only for bulk invalidation; implementations may scan the whole keyspace.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
