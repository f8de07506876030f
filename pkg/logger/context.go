package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request id between taskhub services.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores a request id in ctx. An empty id is replaced with a
// new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestIDExtractor adds "request_id" to records logged with a context
// that carries one.
func RequestIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := RequestID(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
