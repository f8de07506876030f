// Package ops is the operations HTTP surface of a taskhub process: health
// probes, Prometheus metrics and the manual cache rebuild.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/taskhub/internal/rebuild"
	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/health"
	"github.com/dmitrymomot/taskhub/pkg/logger"
)

// Reporter exposes the latest rebuild report. *cache.Rebuilder implements it.
type Reporter interface {
	LastReport() (cache.Report, bool)
}

// Routes lists what the router serves. Nil fields disable their endpoints,
// except Logger which defaults to a discarding logger.
type Routes struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	// Ready must pass for /health/ready to report ready; Optional checks
	// only degrade it.
	Ready    health.Checks
	Optional health.Checks
	Rebuilds rebuild.Enqueuer
	Reports  Reporter
}

// NewRouter builds the ops router:
//
//	GET  /health/live
//	GET  /health/ready
//	GET  /metrics
//	POST /internal/cache/rebuild   queue a rebuild, 202
//	GET  /internal/cache/rebuild   latest rebuild report
func NewRouter(rt Routes) http.Handler {
	log := rt.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(RequestID, Recover(log))

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(rt.Ready,
		health.WithOptional(rt.Optional),
		health.WithLogger(log),
	))

	if rt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}

	if rt.Rebuilds != nil {
		r.Post("/internal/cache/rebuild", requestRebuild(rt.Rebuilds, log))
	}
	if rt.Reports != nil {
		r.Get("/internal/cache/rebuild", lastReport(rt.Reports))
	}

	return r
}

func requestRebuild(enq rebuild.Enqueuer, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := r.URL.Query().Get("reason")
		if reason == "" {
			reason = "ops"
		}
		if err := rebuild.Request(r.Context(), enq, reason); err != nil {
			log.ErrorContext(r.Context(), "failed to queue cache rebuild", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

func lastReport(reports Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report, ok := reports.LastReport()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "never_run"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
