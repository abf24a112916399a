// Package metrics provides Prometheus metrics for the timesync matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Match pipeline metrics
	matchRequests      prometheus.Counter
	matchFailures      *prometheus.CounterVec
	matchLatency       prometheus.Histogram
	candidatesReturned prometheus.Histogram
	normalizeErrors    prometheus.Counter
	gridUnits          prometheus.Histogram

	// Confirmation session metrics
	sessionsActive     prometheus.Gauge
	sessionOutcomes    *prometheus.CounterVec
	eventsApplied      prometheus.Counter
	eventsIgnored      prometheus.Counter
	eventsAfterClose   prometheus.Counter
	candidatePublishes prometheus.Counter

	// Directory metrics
	directoryLatency prometheus.Histogram
	directoryErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "timesync",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
		})
		m.registry.MustRegister(c)
		return c
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		})
		m.registry.MustRegister(h)
		return h
	}

	m.matchRequests = factory("match_requests_total", "Total availability match requests processed")
	m.matchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "match_failures_total",
		Help:      "Match requests rejected, by reason",
	}, []string{"reason"})
	m.registry.MustRegister(m.matchFailures)
	m.matchLatency = histogram("match_latency_ms", "End-to-end match computation latency in milliseconds", m.histogramBuckets)
	m.candidatesReturned = histogram("match_candidates_returned", "Candidates returned per match request",
		[]float64{0, 1, 2, 3, 5, 8, 13, 21})
	m.normalizeErrors = factory("normalize_errors_total", "Slot normalization failures")
	m.gridUnits = histogram("grid_units", "Attendance grid units built per match request",
		[]float64{1, 10, 50, 100, 500, 1000, 5000})

	m.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "confirm_sessions_active",
		Help:      "Confirmation sessions currently pending",
	})
	m.registry.MustRegister(m.sessionsActive)
	m.sessionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "confirm_session_outcomes_total",
		Help:      "Terminal confirmation session outcomes, by state",
	}, []string{"state"})
	m.registry.MustRegister(m.sessionOutcomes)
	m.eventsApplied = factory("confirm_events_applied_total", "Accept/decline events applied to a session")
	m.eventsIgnored = factory("confirm_events_ignored_total", "Events from ineligible participants or unknown candidates")
	m.eventsAfterClose = factory("confirm_events_after_close_total", "Events rejected because the session already terminated")
	m.candidatePublishes = factory("confirm_candidate_publishes_total", "Candidates published to the notification channel")

	m.directoryLatency = histogram("directory_latency_ms", "Directory read latency in milliseconds", m.histogramBuckets)
	m.directoryErrors = factory("directory_errors_total", "Directory read failures")

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.registry.MustRegister(m.httpRequests)
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.registry.MustRegister(m.httpRequestDuration)
}

// Package-level helpers operating on the global manager.

func RecordMatchRequest()                { globalManager.matchRequests.Inc() }
func RecordMatchFailure(reason string)   { globalManager.matchFailures.WithLabelValues(reason).Inc() }
func RecordMatchLatency(ms float64)      { globalManager.matchLatency.Observe(ms) }
func RecordCandidatesReturned(n int)     { globalManager.candidatesReturned.Observe(float64(n)) }
func RecordNormalizeError()              { globalManager.normalizeErrors.Inc() }
func RecordGridUnits(n int)              { globalManager.gridUnits.Observe(float64(n)) }
func IncSessionsActive()                 { globalManager.sessionsActive.Inc() }
func DecSessionsActive()                 { globalManager.sessionsActive.Dec() }
func RecordSessionOutcome(state string)  { globalManager.sessionOutcomes.WithLabelValues(state).Inc() }
func RecordEventApplied()                { globalManager.eventsApplied.Inc() }
func RecordEventIgnored()                { globalManager.eventsIgnored.Inc() }
func RecordEventAfterClose()             { globalManager.eventsAfterClose.Inc() }
func RecordCandidatePublish()            { globalManager.candidatePublishes.Inc() }
func RecordDirectoryLatency(ms float64)  { globalManager.directoryLatency.Observe(ms) }
func RecordDirectoryError()              { globalManager.directoryErrors.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
