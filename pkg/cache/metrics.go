package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records cache behaviour in Prometheus. A nil *Metrics is valid
// and records nothing, so caches can be built without observability in tests.
type Metrics struct {
	lookups       *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	loaderErrors  *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	sections      *prometheus.CounterVec
}

// NewMetrics creates the cache collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache reads by cache name and result (hit, miss).",
		}, []string{"cache", "result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "store_errors_total",
			Help:      "Absorbed store and codec failures by cache name and operation.",
		}, []string{"cache", "op"}),
		loaderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "loader_errors_total",
			Help:      "Loader and fetcher failures by cache name.",
		}, []string{"cache"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "invalidated_keys_total",
			Help:      "Keys removed by explicit invalidation.",
		}, []string{"cache"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "load_duration_seconds",
			Help:      "Time spent in loaders after a miss.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "cache",
			Name:      "rebuild_sections_total",
			Help:      "Rebuild sections by name and result (ok, failed).",
		}, []string{"section", "result"}),
	}

	for _, c := range []prometheus.Collector{
		m.lookups, m.storeErrors, m.loaderErrors, m.invalidations, m.loadDuration, m.sections,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) hit(cache string) {
	if m != nil {
		m.lookups.WithLabelValues(cache, "hit").Inc()
	}
}

func (m *Metrics) miss(cache string) {
	if m != nil {
		m.lookups.WithLabelValues(cache, "miss").Inc()
	}
}

func (m *Metrics) storeError(cache, op string) {
	if m != nil {
		m.storeErrors.WithLabelValues(cache, op).Inc()
	}
}

func (m *Metrics) loaderError(cache string) {
	if m != nil {
		m.loaderErrors.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) invalidated(cache string, n int) {
	if m != nil && n > 0 {
		m.invalidations.WithLabelValues(cache).Add(float64(n))
	}
}

func (m *Metrics) loaded(cache string, d time.Duration) {
	if m != nil {
		m.loadDuration.WithLabelValues(cache).Observe(d.Seconds())
	}
}

func (m *Metrics) section(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.sections.WithLabelValues(name, result).Inc()
}
