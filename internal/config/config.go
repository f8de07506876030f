// Package config loads a taskhub process configuration from the
// environment with caarlos0/env.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/db"
	"github.com/dmitrymomot/taskhub/pkg/logger"
	"github.com/dmitrymomot/taskhub/pkg/redis"
)

// Service names accepted in SERVICE.
const (
	Users         = "users"
	Projects      = "projects"
	Tasks         = "tasks"
	Subtasks      = "subtasks"
	Assignments   = "assignments"
	Notifications = "notifications"

	// All runs every service in one process.
	All = "all"
)

// Services lists every service in dependency order.
var Services = []string{Users, Projects, Tasks, Subtasks, Assignments, Notifications}

var (
	// ErrUnknownService is returned for a SERVICE entry that names no service.
	ErrUnknownService = errors.New("config: unknown service")
	// ErrSiblingURL is returned when a service depends on one that runs
	// elsewhere and its URL is not configured.
	ErrSiblingURL = errors.New("config: sibling service url required")
)

// Config is the full process configuration.
type Config struct {
	Logger logger.Config
	DB     db.Config
	Redis  redis.Config
	TTL    platform.TTLs

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Sibling services, used when the owning service is not wired in this
	// process.
	UserServiceURL    string        `env:"USER_SERVICE_URL"`
	ProjectServiceURL string        `env:"PROJECT_SERVICE_URL"`
	RemoteTimeout     time.Duration `env:"REMOTE_TIMEOUT" envDefault:"3s"`

	CacheKeyPrefix     string        `env:"CACHE_KEY_PREFIX"`
	CacheOpTimeout     time.Duration `env:"CACHE_OP_TIMEOUT" envDefault:"2s"`
	WarmOnWrite        bool          `env:"CACHE_WARM_ON_WRITE" envDefault:"false"`
	RebuildSchedule    string        `env:"CACHE_REBUILD_SCHEDULE" envDefault:"0 2 * * *"`
	RebuildOnStart     bool          `env:"CACHE_REBUILD_ON_START" envDefault:"false"`
	RebuildConcurrency int           `env:"CACHE_REBUILD_CONCURRENCY" envDefault:"1"`

	BackgroundWorkers   int `env:"BACKGROUND_WORKERS" envDefault:"4"`
	BackgroundQueueSize int `env:"BACKGROUND_QUEUE_SIZE" envDefault:"256"`
	JobWorkers          int `env:"JOB_WORKERS" envDefault:"4"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Enabled returns the services wired in this process, in dependency order.
// SERVICE is "all" or a comma-separated list of service names.
func (c Config) Enabled() ([]string, error) {
	raw := strings.TrimSpace(c.Logger.Service)
	if raw == "" || raw == All {
		return slices.Clone(Services), nil
	}

	want := make(map[string]bool)
	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if !slices.Contains(Services, name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
		}
		want[name] = true
	}

	var out []string
	for _, name := range Services {
		if want[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Validate checks that every enabled service can reach the services it
// depends on, either in-process or over HTTP.
func (c Config) Validate() error {
	enabled, err := c.Enabled()
	if err != nil {
		return err
	}
	has := func(name string) bool { return slices.Contains(enabled, name) }

	needsUsers := has(Projects) || has(Assignments) || has(Notifications)
	if needsUsers && !has(Users) && c.UserServiceURL == "" {
		return fmt.Errorf("%w: USER_SERVICE_URL", ErrSiblingURL)
	}
	if has(Tasks) && !has(Projects) && c.ProjectServiceURL == "" {
		return fmt.Errorf("%w: PROJECT_SERVICE_URL", ErrSiblingURL)
	}
	if has(Assignments) && !has(Subtasks) {
		return fmt.Errorf("%w: assignments run with subtasks", ErrUnknownService)
	}
	return nil
}
