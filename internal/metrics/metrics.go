// Package metrics defines the Prometheus collectors of the phrase engine and
// exposes an HTTP handler for scraping.
//
// All recording methods accept a nil *Metrics and do nothing, so services can
// run without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Phrase query outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeNoResult = "zero_result"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	PhraseQueriesTotal   *prometheus.CounterVec
	PhraseQueryLatency   *prometheus.HistogramVec
	PhraseMatchesTotal   *prometheus.CounterVec
	CandidateDocsTotal   *prometheus.CounterVec
	DocsIndexedTotal     *prometheus.CounterVec
	DocsDeletedTotal     *prometheus.CounterVec
	JobsTotal            *prometheus.CounterVec
	PersistDuration      *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		PhraseQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phrase_queries_total",
				Help: "Total phrase queries by index and outcome (hit, zero_result, error).",
			},
			[]string{"index", "outcome"},
		),
		PhraseQueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phrase_query_latency_seconds",
				Help:    "Phrase query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"index"},
		),
		PhraseMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phrase_matches_total",
				Help: "Total phrase occurrences found by the matchers.",
			},
			[]string{"index"},
		),
		CandidateDocsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phrase_candidate_documents_total",
				Help: "Total candidate document fields evaluated by the matchers.",
			},
			[]string{"index"},
		),
		DocsIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed or re-indexed.",
			},
			[]string{"index"},
		),
		DocsDeletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_deleted_total",
				Help: "Total documents removed from an index.",
			},
			[]string{"index"},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobs_total",
				Help: "Background jobs by type and final status.",
			},
			[]string{"type", "status"},
		),
		PersistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "index_persist_duration_seconds",
				Help:    "Time spent writing an index snapshot to disk.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"index"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PhraseQueriesTotal,
		m.PhraseQueryLatency,
		m.PhraseMatchesTotal,
		m.CandidateDocsTotal,
		m.DocsIndexedTotal,
		m.DocsDeletedTotal,
		m.JobsTotal,
		m.PersistDuration,
	)

	return m
}

// Registry returns the private registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePhraseQuery records one phrase query.
func (m *Metrics) ObservePhraseQuery(index, outcome string, took time.Duration, candidates, matches int) {
	if m == nil {
		return
	}
	m.PhraseQueriesTotal.WithLabelValues(index, outcome).Inc()
	m.PhraseQueryLatency.WithLabelValues(index).Observe(took.Seconds())
	m.CandidateDocsTotal.WithLabelValues(index).Add(float64(candidates))
	m.PhraseMatchesTotal.WithLabelValues(index).Add(float64(matches))
}

// AddDocumentsIndexed counts documents written to index.
func (m *Metrics) AddDocumentsIndexed(index string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DocsIndexedTotal.WithLabelValues(index).Add(float64(n))
}

// AddDocumentsDeleted counts documents removed from index.
func (m *Metrics) AddDocumentsDeleted(index string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DocsDeletedTotal.WithLabelValues(index).Add(float64(n))
}

// RecordJob counts a job reaching a final status.
func (m *Metrics) RecordJob(jobType, status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(jobType, status).Inc()
}

// ObservePersist records the duration of an index snapshot.
func (m *Metrics) ObservePersist(index string, took time.Duration) {
	if m == nil {
		return
	}
	m.PersistDuration.WithLabelValues(index).Observe(took.Seconds())
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
