package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theopenlane/eushield/internal/types"
)

// Cache lookup outcomes
const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

// metrics holds the service counters. Each router owns its own registry. A
// nil *metrics records nothing.
type metrics struct {
	registry     *prometheus.Registry
	analyses     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	duration     prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eushield_analyses_total",
			Help: "Completed analyses by verdict",
		}, []string{"status"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eushield_analysis_fallbacks_total",
			Help: "Analyses that resolved to the grey fallback, by reason",
		}, []string{"reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eushield_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eushield_analysis_duration_seconds",
			Help:    "Wall time of one analysis including probing",
			Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10, 30},
		}),
	}

	m.registry.MustRegister(m.analyses, m.fallbacks, m.cacheLookups, m.duration)

	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeAnalysis(status types.Status, started time.Time) {
	if m == nil {
		return
	}

	m.analyses.WithLabelValues(string(status)).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *metrics) observeFallback(reason string, started time.Time) {
	if m == nil {
		return
	}

	m.fallbacks.WithLabelValues(reason).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *metrics) observeLookup(result string) {
	if m == nil {
		return
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}
