package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config holds logger configuration read from the environment.
type Config struct {
	Service string `env:"SERVICE" envDefault:"all"`
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Sentry  SentryConfig
}

// SentryConfig holds Sentry integration configuration.
// Cache degradation is logged at WARN, so the default MinLevel ships those
// records to Sentry as searchable logs while errors become issues.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	MinLevel    string `env:"SENTRY_MIN_LEVEL" envDefault:"warn"`
}

// New creates the JSON logger used by every taskhub process. Records carry
// a "service" attribute plus whatever the extractors find in the context.
// When cfg.Sentry.DSN is set, records are also forwarded to Sentry; a
// failing Sentry init degrades to stdout only.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return newLogger(os.Stdout, cfg, extractors...)
}

func newLogger(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			EnableLogs:  true,
		}); err != nil {
			slog.New(handler).Error("failed to initialize Sentry", slog.Any("error", err))
		} else {
			handler = tee(handler, sentryHandler(cfg.Sentry))
		}
	}

	log := slog.New(withContext(handler, extractors...))
	if cfg.Service != "" {
		log = log.With(slog.String("service", cfg.Service))
	}
	return log
}

func sentryHandler(cfg SentryConfig) slog.Handler {
	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if ParseLevel(cfg.MinLevel) >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown
// values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Flush waits for buffered Sentry events. Call it during shutdown.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Discard returns a logger that drops everything. Used as the default when
// a component is built without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
