// Package metrics provides Prometheus metrics for the matchmaker service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for match run outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
)

// Label values for enrichment operations and results.
const (
	OperationExtract   = "extract"
	OperationSummarize = "summarize"

	ResultOK       = "ok"
	ResultFallback = "fallback"
)

// Manager owns the Prometheus collectors for one process.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Matching
	matchRuns           *prometheus.CounterVec
	matchRunDuration    prometheus.Histogram
	matchesProduced     prometheus.Histogram
	candidatesScored    prometheus.Counter
	persistenceFailures prometheus.Counter

	// Semantic enrichment
	enrichmentCalls   *prometheus.CounterVec
	enrichmentLatency *prometheus.HistogramVec

	// Analysis cache
	analysisLookups *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec
}

// NewManager creates a metrics manager. Without WithRegistry a fresh registry
// carrying the Go runtime and process collectors is used.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchmaker",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.matchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "match_runs_total",
		Help:        "Match computations by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.matchRunDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "match_run_duration_seconds",
		Help:        "End-to-end duration of a match computation",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.matchesProduced = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "matches_per_run",
		Help:        "Number of matches returned per computation",
		Buckets:     []float64{0, 1, 2, 3, 5, 8, 10},
		ConstLabels: labels,
	})

	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_scored_total",
		Help:        "Candidate pairs scored",
		ConstLabels: labels,
	})

	m.persistenceFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "match_persistence_failures_total",
		Help:        "Match set replacements that failed",
		ConstLabels: labels,
	})

	m.enrichmentCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrichment_calls_total",
		Help:        "Semantic enrichment calls by operation and result",
		ConstLabels: labels,
	}, []string{"operation", "result"})

	m.enrichmentLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrichment_duration_seconds",
		Help:        "Latency of semantic enrichment calls",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"operation"})

	m.analysisLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_cache_lookups_total",
		Help:        "Profile analysis lookups by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by route, method and status",
		ConstLabels: labels,
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request latency",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"route", "method"})

	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_rate_limited_total",
		Help:        "Requests rejected by the rate limiter",
		ConstLabels: labels,
	}, []string{"route"})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordMatchRun records the outcome, duration and size of one computation.
func (m *Manager) RecordMatchRun(outcome string, duration time.Duration, matches int) {
	if !m.active() {
		return
	}
	m.matchRuns.WithLabelValues(outcome).Inc()
	m.matchRunDuration.Observe(duration.Seconds())
	if outcome == OutcomeOK {
		m.matchesProduced.Observe(float64(matches))
	}
}

// AddCandidatesScored counts scored candidate pairs.
func (m *Manager) AddCandidatesScored(n int) {
	if !m.active() {
		return
	}
	m.candidatesScored.Add(float64(n))
}

// RecordPersistenceFailure counts a failed match set replacement.
func (m *Manager) RecordPersistenceFailure() {
	if !m.active() {
		return
	}
	m.persistenceFailures.Inc()
}

// RecordEnrichment records one semantic enrichment call.
func (m *Manager) RecordEnrichment(operation, result string, duration time.Duration) {
	if !m.active() {
		return
	}
	m.enrichmentCalls.WithLabelValues(operation, result).Inc()
	m.enrichmentLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAnalysisLookup records an analysis cache hit or miss.
func (m *Manager) RecordAnalysisLookup(hit bool) {
	if !m.active() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.analysisLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Manager) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if !m.active() {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Manager) RecordRateLimited(route string) {
	if !m.active() {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
