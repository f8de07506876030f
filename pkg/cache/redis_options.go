package cache

import "time"

// RedisOption configures the Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
	opTimeout  time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		defaultTTL: time.Hour,
		opTimeout:  2 * time.Second,
	}
}

// WithRedisDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Default: 1 hour.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.defaultTTL = d
	}
}

// WithPrefix namespaces every key as "{prefix}:{key}".
// Leave empty in production: the key space is shared with existing deployments.
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithOpTimeout bounds every Redis round trip. Zero disables the bound
// and relies on the client's read/write timeouts.
// Default: 2 seconds.
func WithOpTimeout(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.opTimeout = d
	}
}
