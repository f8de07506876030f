package ops

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/dmitrymomot/taskhub/pkg/logger"
)

// requestIDHeaders are checked in order for an upstream request id.
var requestIDHeaders = []string{logger.HeaderRequestID, "X-Correlation-ID"}

// RequestID stores the upstream request id, or a new one, in the request
// context and echoes it in the response. Loggers built with
// logger.RequestIDExtractor pick it up, and pkg/remote forwards it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		for _, h := range requestIDHeaders {
			if v := r.Header.Get(h); v != "" {
				id = v
				break
			}
		}

		ctx := logger.WithRequestID(r.Context(), id)
		id, _ = logger.RequestID(ctx)
		w.Header().Set(logger.HeaderRequestID, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const stackSize = 4096

// Recover turns a handler panic into a 500 and logs it with its stack.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				log.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(stack)),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
