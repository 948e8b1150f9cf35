// Package metrics provides Prometheus metrics for the dpsmeter service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the dpsmeter service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Files
	filesUploaded prometheus.Counter
	filesRemoved  prometheus.Counter
	storedFiles   prometheus.Gauge
	storedLines   prometheus.Gauge

	// Parsing
	linesParsed     prometheus.Counter
	eventsIngested  prometheus.Counter
	linesSkipped    *prometheus.CounterVec
	fieldsDefaulted *prometheus.CounterVec

	// Rendering
	rebuildDuration     prometheus.Histogram
	chartRenderDuration prometheus.Histogram
	actions             *prometheus.CounterVec
	targets             prometheus.Gauge
	sources             prometheus.Gauge

	// Repository
	repositoryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dpsmeter",
		subsystem:        "analyzer",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.filesUploaded = m.counter("files_uploaded_total", "Total number of log files accepted")
	m.filesRemoved = m.counter("files_removed_total", "Total number of log files removed")
	m.storedFiles = m.gauge("stored_files", "Number of log files currently loaded")
	m.storedLines = m.gauge("stored_lines", "Number of data lines across loaded files")

	m.linesParsed = m.counter("lines_parsed_total", "Total number of data lines run through the parser")
	m.eventsIngested = m.counter("events_ingested_total", "Total number of damage events produced by the parser")
	m.linesSkipped = m.counterVec("lines_skipped_total", "Lines that produced no event, by reason", "reason")
	m.fieldsDefaulted = m.counterVec("fields_defaulted_total", "Unparseable fields replaced by zero, by field", "field")

	m.rebuildDuration = m.histogram("rebuild_duration_milliseconds", "Time to rebuild the index and render a snapshot")
	m.chartRenderDuration = m.histogram("chart_render_duration_milliseconds", "Time to draw the PNG chart")
	m.actions = m.counterVec("actions_total", "View actions applied, by type", "type")
	m.targets = m.gauge("targets", "Targets found in the loaded files")
	m.sources = m.gauge("sources", "Distinct sources found in the loaded files")

	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "File store operation latency", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.memoryUsage = m.gauge("memory_usage_bytes", "Heap bytes allocated")
	m.goroutineCount = m.gauge("goroutine_count", "Number of goroutines")
	m.gcPauseTime = m.histogram("gc_pause_time_milliseconds", "Average GC pause time")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")
}

func on() bool { return globalManager != nil && globalManager.enabled }

// File Metrics Functions.

// RecordFileUploaded increments the uploaded files counter.
func RecordFileUploaded() {
	if on() {
		globalManager.filesUploaded.Inc()
	}
}

// RecordFileRemoved increments the removed files counter.
func RecordFileRemoved() {
	if on() {
		globalManager.filesRemoved.Inc()
	}
}

// UpdateStoredFiles sets the number of loaded files.
func UpdateStoredFiles(count int) {
	if on() {
		globalManager.storedFiles.Set(float64(count))
	}
}

// UpdateStoredLines sets the number of loaded data lines.
func UpdateStoredLines(count int) {
	if on() {
		globalManager.storedLines.Set(float64(count))
	}
}

// Parse Metrics Functions.

// RecordLinesParsed adds n to the parsed lines counter.
func RecordLinesParsed(n int) {
	if on() && n > 0 {
		globalManager.linesParsed.Add(float64(n))
	}
}

// RecordEventsIngested adds n to the ingested events counter.
func RecordEventsIngested(n int) {
	if on() && n > 0 {
		globalManager.eventsIngested.Add(float64(n))
	}
}

// RecordLinesSkipped adds n skipped lines for reason.
func RecordLinesSkipped(reason string, n int) {
	if on() && n > 0 {
		globalManager.linesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFieldsDefaulted adds n zero-filled values of field.
func RecordFieldsDefaulted(field string, n int) {
	if on() && n > 0 {
		globalManager.fieldsDefaulted.WithLabelValues(field).Add(float64(n))
	}
}

// Render Metrics Functions.

// RecordRebuildDuration records one rebuild in milliseconds.
func RecordRebuildDuration(ms float64) {
	if on() {
		globalManager.rebuildDuration.Observe(ms)
	}
}

// RecordChartRenderDuration records one PNG render in milliseconds.
func RecordChartRenderDuration(ms float64) {
	if on() {
		globalManager.chartRenderDuration.Observe(ms)
	}
}

// RecordAction increments the action counter for actionType.
func RecordAction(actionType string) {
	if on() {
		globalManager.actions.WithLabelValues(actionType).Inc()
	}
}

// UpdateTargets sets the number of targets.
func UpdateTargets(count int) {
	if on() {
		globalManager.targets.Set(float64(count))
	}
}

// UpdateSources sets the number of distinct sources.
func UpdateSources(count int) {
	if on() {
		globalManager.sources.Set(float64(count))
	}
}

// Repository Metrics Functions.

// RecordRepositoryLatency records a file store operation in milliseconds.
func RecordRepositoryLatency(op string, ms float64) {
	if on() {
		globalManager.repositoryLatency.WithLabelValues(op).Observe(ms)
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.goroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	if on() {
		globalManager.gcPauseTime.Observe(ms)
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// SetEnabled turns recording on or off for the global manager.
func SetEnabled(enabled bool) {
	if globalManager != nil {
		globalManager.enabled = enabled
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
