package redis

import "time"

// Config holds Redis settings loaded from the environment.
//
// Timeouts are deliberately low: the cache is an accelerator, and a slow
// Redis must fall through to the database rather than stall requests.
type Config struct {
	URL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	PoolSize       int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns   int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxIdleTime    time.Duration `env:"REDIS_MAX_IDLE_TIME" envDefault:"10m"`
	MaxActiveTime  time.Duration `env:"REDIS_MAX_ACTIVE_TIME" envDefault:"30m"`
	DialTimeout    time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"1s"`
	ReadTimeout    time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	WriteTimeout   time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	RequiredOnBoot bool          `env:"REDIS_REQUIRED_ON_BOOT" envDefault:"false"`
}

// DefaultConfig returns the values used when no environment is set.
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379/0",
		PoolSize:      10,
		MinIdleConns:  2,
		MaxIdleTime:   10 * time.Minute,
		MaxActiveTime: 30 * time.Minute,
		DialTimeout:   time.Second,
		ReadTimeout:   500 * time.Millisecond,
		WriteTimeout:  500 * time.Millisecond,
		RetryAttempts: 3,
		RetryInterval: 2 * time.Second,
	}
}
