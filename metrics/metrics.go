// Package metrics publishes Prometheus metrics for query execution and
// cache activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueryOutcome labels how a query was resolved.
type QueryOutcome string

const (
	// OutcomeHit means the cached payload was returned.
	OutcomeHit QueryOutcome = "hit"
	// OutcomeMiss means the payload was fetched and written through.
	OutcomeMiss QueryOutcome = "miss"
	// OutcomeShared means the caller joined another caller's in-flight fetch.
	OutcomeShared QueryOutcome = "shared"
	// OutcomeFresh means the cache read was bypassed on request.
	OutcomeFresh QueryOutcome = "fresh"
	// OutcomeError means the query failed.
	OutcomeError QueryOutcome = "error"
)

// Recorder publishes query and cache metrics. A nil Recorder is valid
// and records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	invalidated  *prometheus.CounterVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry is created so multiple recorders can coexist
// without conflicting with the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sparqlkit",
		Subsystem: "query",
		Name:      "requests_total",
		Help:      "Queries processed, by instance and outcome.",
	}, []string{"instance", "outcome"})

	queryLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sparqlkit",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "Wall time per query, cache hits included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"instance"})

	invalidated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sparqlkit",
		Subsystem: "cache",
		Name:      "invalidated_total",
		Help:      "Entries removed by per-instance invalidation.",
	}, []string{"instance"})

	reg.MustRegister(queries, queryLatency, invalidated)

	return &Recorder{
		gatherer:     reg,
		handler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		queries:      queries,
		queryLatency: queryLatency,
		invalidated:  invalidated,
	}
}

// Handler exposes the recorder's registry for scraping.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return r.handler
}

// ObserveQuery records one resolved query.
func (r *Recorder) ObserveQuery(instanceID string, outcome QueryOutcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(instanceID, string(outcome)).Inc()
	r.queryLatency.WithLabelValues(instanceID).Observe(elapsed.Seconds())
}

// ObserveInvalidation records entries removed by invalidating an instance.
func (r *Recorder) ObserveInvalidation(instanceID string, removed int) {
	if r == nil {
		return
	}
	r.invalidated.WithLabelValues(instanceID).Add(float64(removed))
}
