package ops

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/logger"
)

const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
)

// ShutdownHook releases one resource during shutdown.
type ShutdownHook func(ctx context.Context) error

// Server serves the ops router until its context is cancelled, then stops
// the listener and runs the shutdown hooks in order.
type Server struct {
	Handler         http.Handler
	Logger          *slog.Logger
	Addr            string
	ShutdownTimeout time.Duration
	Hooks           []ShutdownHook
}

// Run blocks until ctx is done or the listener fails. Hook errors are
// logged and joined into the result.
func (s *Server) Run(ctx context.Context) error {
	log := s.Logger
	if log == nil {
		log = logger.Discard()
	}
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	timeout := s.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}

	server := &http.Server{
		Handler:           s.Handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var errs []error
	select {
	case err := <-errCh:
		if err != nil {
			errs = append(errs, err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range s.Hooks {
		if err := hook(shutdownCtx); err != nil {
			log.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info("shutdown completed")
	return nil
}
