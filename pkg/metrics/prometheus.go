// Package metrics provides Prometheus metrics for the finishline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the finishline service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	constLabels      map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Leaderboard
	leaderboardViews       prometheus.Counter
	leaderboardViewLatency prometheus.Histogram
	leaderboardRows        prometheus.Gauge

	// Gallery sessions
	galleryActiveSessions  prometheus.Gauge
	gallerySessionsOpened  prometheus.Counter
	gallerySessionsEvicted *prometheus.CounterVec

	// Window and layout engines
	windowGrowths          *prometheus.CounterVec
	layoutPasses           prometheus.Counter
	layoutCoalesced        prometheus.Counter
	layoutPlacementsPerRun prometheus.Histogram

	// Face matching
	selfiesAccepted   prometheus.Counter
	selfiesDuplicate  prometheus.Counter
	faceMatchLatency  prometheus.Histogram
	faceMatchErrors   prometheus.Counter
	faceMatchesMerged prometheus.Counter

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// DefaultLatencyBuckets are the millisecond buckets of every latency histogram.
var DefaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // read-only defaults

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
		namespace:        "finishline",
		subsystem:        "",
		latencyBuckets:   DefaultLatencyBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.latencyBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Leaderboard
	m.leaderboardViews = auto.NewCounter(m.counterOpts("leaderboard_views_total",
		"Total number of leaderboard views built"))
	m.leaderboardViewLatency = auto.NewHistogram(m.histogramOpts("leaderboard_view_latency_milliseconds",
		"Time to build one leaderboard view in milliseconds", nil))
	m.leaderboardRows = auto.NewGauge(m.gaugeOpts("leaderboard_rows",
		"Rows matching the filters of the last leaderboard view"))

	// Gallery sessions
	m.galleryActiveSessions = auto.NewGauge(m.gaugeOpts("gallery_active_sessions",
		"Number of live gallery sessions"))
	m.gallerySessionsOpened = auto.NewCounter(m.counterOpts("gallery_sessions_opened_total",
		"Total number of gallery sessions opened"))
	m.gallerySessionsEvicted = auto.NewCounterVec(m.counterOpts("gallery_sessions_evicted_total",
		"Total number of gallery sessions dropped by reason"), []string{"reason"})

	// Window and layout engines
	m.windowGrowths = auto.NewCounterVec(m.counterOpts("window_growths_total",
		"Reveal growth requests by outcome"), []string{"outcome"})
	m.layoutPasses = auto.NewCounter(m.counterOpts("layout_passes_total",
		"Total number of completed layout passes"))
	m.layoutCoalesced = auto.NewCounter(m.counterOpts("layout_requests_coalesced_total",
		"Layout requests folded into an already pending pass"))
	m.layoutPlacementsPerRun = auto.NewHistogram(m.histogramOpts("layout_placements",
		"Number of photos placed per layout pass", prometheus.ExponentialBuckets(8, 2, 10)))

	// Face matching
	m.selfiesAccepted = auto.NewCounter(m.counterOpts("selfies_accepted_total",
		"Total number of selfies accepted for matching"))
	m.selfiesDuplicate = auto.NewCounter(m.counterOpts("selfies_duplicate_total",
		"Total number of repeated selfie submissions"))
	m.faceMatchLatency = auto.NewHistogram(m.histogramOpts("facematch_latency_milliseconds",
		"Face-match call latency in milliseconds", nil))
	m.faceMatchErrors = auto.NewCounter(m.counterOpts("facematch_errors_total",
		"Total number of failed face-match calls"))
	m.faceMatchesMerged = auto.NewCounter(m.counterOpts("facematch_photos_merged_total",
		"Photos appended to galleries by face matching"))

	// Repository
	m.repositoryQueryLatency = auto.NewHistogramVec(m.histogramOpts("repository_query_latency_milliseconds",
		"Repository query latency in milliseconds", nil), []string{"query"})

	// HTTP
	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	// Queue
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current size of the face-match job queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum capacity of the face-match job queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization ratio (size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Total number of rejected enqueues"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds",
		"Enqueue latency in milliseconds", nil))

	// Worker
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Configured number of face-match workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Number of workers running a job"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count",
		"Number of idle workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time to run one face-match job in milliseconds", nil))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Total number of failed jobs"))

	// Errors
	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	// System
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordLeaderboardView records one built leaderboard view.
func RecordLeaderboardView(latencyMs float64, rows int) {
	globalManager.leaderboardViews.Inc()
	globalManager.leaderboardViewLatency.Observe(latencyMs)
	globalManager.leaderboardRows.Set(float64(rows))
}

// RecordGallerySessionOpened counts a new gallery session.
func RecordGallerySessionOpened() {
	globalManager.gallerySessionsOpened.Inc()
}

// UpdateGalleryActiveSessions sets the live session gauge.
func UpdateGalleryActiveSessions(count int) {
	globalManager.galleryActiveSessions.Set(float64(count))
}

// RecordGallerySessionEvicted counts a dropped session.
func RecordGallerySessionEvicted(reason string) {
	globalManager.gallerySessionsEvicted.WithLabelValues(reason).Inc()
}

// RecordWindowGrowth counts a growth request; coalesced requests changed nothing.
func RecordWindowGrowth(grew bool) {
	outcome := "coalesced"
	if grew {
		outcome = "grew"
	}
	globalManager.windowGrowths.WithLabelValues(outcome).Inc()
}

// RecordLayoutPass records a completed layout pass.
func RecordLayoutPass(placements int) {
	globalManager.layoutPasses.Inc()
	globalManager.layoutPlacementsPerRun.Observe(float64(placements))
}

// RecordLayoutCoalesced adds coalesced layout requests.
func RecordLayoutCoalesced(count int) {
	if count > 0 {
		globalManager.layoutCoalesced.Add(float64(count))
	}
}

// RecordSelfieAccepted counts a selfie queued for matching.
func RecordSelfieAccepted() {
	globalManager.selfiesAccepted.Inc()
}

// RecordSelfieDuplicate counts a repeated selfie submission.
func RecordSelfieDuplicate() {
	globalManager.selfiesDuplicate.Inc()
}

// RecordFaceMatchLatency records face-match latency in milliseconds.
func RecordFaceMatchLatency(latencyMs float64) {
	globalManager.faceMatchLatency.Observe(latencyMs)
}

// RecordFaceMatchError counts a failed face-match call.
func RecordFaceMatchError() {
	globalManager.faceMatchErrors.Inc()
}

// RecordFaceMatchesMerged counts photos appended by face matching.
func RecordFaceMatchesMerged(count int) {
	if count > 0 {
		globalManager.faceMatchesMerged.Add(float64(count))
	}
}

// RecordRepositoryQueryLatency records repository query latency in milliseconds.
func RecordRepositoryQueryLatency(query string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(query).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions

// UpdateQueueSize updates the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the queue capacity metric.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization updates the queue utilization metric.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue records a queue enqueue operation.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue records a queue dequeue operation.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError records a queue enqueue error.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions

// UpdateWorkerCount updates the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount updates the active worker count.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount updates the idle worker count.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError records a worker error.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
