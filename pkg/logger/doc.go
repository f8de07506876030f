// Package logger builds the structured JSON logger shared by taskhub
// processes.
//
// Records are enriched with request-scoped attributes through
// [ContextExtractor]s and, when SENTRY_DSN is configured, mirrored to
// Sentry: WARN and ERROR records become Sentry logs and ERROR records also
// open issues. The cache layer logs absorbed Redis failures at WARN, so a
// degraded cache is visible in Sentry without failing requests.
//
//	var cfg logger.Config // parsed with caarlos0/env
//	log := logger.New(cfg, logger.RequestIDExtractor())
//	defer logger.Flush(2 * time.Second)
//
//	ctx := logger.WithRequestID(ctx, r.Header.Get(logger.HeaderRequestID))
//	log.InfoContext(ctx, "project created", slog.Int64("project_id", id))
//	// {"level":"INFO","msg":"project created","service":"project","project_id":7,"request_id":"..."}
package logger
