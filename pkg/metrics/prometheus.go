// Package metrics provides Prometheus metrics for the news-signal pipeline and projection engine.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	itemsNormalized *prometheus.CounterVec
	itemsMalformed  *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	signalsParsed   *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	unresolved      *prometheus.CounterVec
	assumptions     *prometheus.CounterVec

	// Projection
	projections       *prometheus.CounterVec
	projectionLatency prometheus.Histogram

	// Operational
	rosterSize  prometheus.Gauge
	dedupeSize  *prometheus.GaugeVec
	runDuration *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     *prometheus.CounterVec
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before anything is recorded. On error
// the current manager stays in place.
func Configure(opts ...Option) (err error) {
	registry := prometheus.NewRegistry()
	defer func() {
		// promauto panics on names or labels the registry refuses.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrConfigure, r)
		}
	}()
	m := NewManager(append(append([]Option{}, opts...), WithRegistry(registry))...)

	globalManager, customRegistry = m, registry
	return nil
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "livelox",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.itemsNormalized = m.counterVec("items_normalized_total",
		"Raw items produced by the source normalizer", "kind")
	m.itemsMalformed = m.counterVec("items_malformed_total",
		"Collector payloads skipped as malformed", "kind")
	m.duplicates = m.counterVec("duplicates_total",
		"Items or signals suppressed by the deduplicator", "key")
	m.signalsParsed = m.counterVec("signals_parsed_total",
		"Signals extracted from raw items", "taxonomy")
	m.resolutions = m.counterVec("resolutions_total",
		"Subject names resolved to a player id", "tier")
	m.unresolved = m.counterVec("unresolved_total",
		"Subject names that failed every resolution tier", "reason")
	m.assumptions = m.counterVec("assumptions_total",
		"Assumption engine outcomes", "decision")

	m.projections = m.counterVec("projections_total",
		"Player projections computed", "confidence")
	m.projectionLatency = m.histogram("projection_latency_milliseconds",
		"Time to compute one player projection")

	m.rosterSize = m.gauge("roster_size", "Players in the active roster cache")
	m.dedupeSize = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dedupe_keys",
		Help:        "Live keys held by each deduplicator window",
		ConstLabels: m.constLabels,
	}, []string{"key"})
	m.runDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_milliseconds",
		Help:        "Wall time of one batch run",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		ConstLabels: m.constLabels,
	}, []string{"run"})

	m.queueSize = m.gauge("queue_size", "Current size of the item queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Items enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Items dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total",
		"Rejected enqueue attempts", "reason")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Enqueue latency in milliseconds")

	m.workerCount = m.gauge("worker_count", "Workers in the pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Per-item processing latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Items whose processing returned an error")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
}

// RecordItemNormalized counts a raw item of the given kind.
func RecordItemNormalized(kind string) {
	globalManager.itemsNormalized.WithLabelValues(kind).Inc()
}

// RecordItemMalformed counts a skipped payload of the given kind.
func RecordItemMalformed(kind string) {
	globalManager.itemsMalformed.WithLabelValues(kind).Inc()
}

// RecordDuplicate counts a suppressed item ("content") or signal ("signal").
func RecordDuplicate(key string) {
	globalManager.duplicates.WithLabelValues(key).Inc()
}

// RecordSignalParsed counts a parsed signal by taxonomy.
func RecordSignalParsed(taxonomy string) {
	globalManager.signalsParsed.WithLabelValues(taxonomy).Inc()
}

// RecordResolution counts a successful resolution by match tier.
func RecordResolution(tier string) {
	globalManager.resolutions.WithLabelValues(tier).Inc()
}

// RecordUnresolved counts a resolution failure.
func RecordUnresolved(reason string) {
	globalManager.unresolved.WithLabelValues(reason).Inc()
}

// RecordAssumption counts an assumption engine decision.
func RecordAssumption(decision string) {
	globalManager.assumptions.WithLabelValues(decision).Inc()
}

// RecordProjection counts a projection by its confidence label.
func RecordProjection(confidence string) {
	globalManager.projections.WithLabelValues(confidence).Inc()
}

// RecordProjectionLatency records projection latency in milliseconds.
func RecordProjectionLatency(latencyMs float64) {
	globalManager.projectionLatency.Observe(latencyMs)
}

// UpdateRosterSize sets the roster cache size.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// UpdateDedupeSize sets the live key count of a dedup window.
func UpdateDedupeSize(key string, n int64) {
	globalManager.dedupeSize.WithLabelValues(key).Set(float64(n))
}

// RecordRunDuration records how long a batch run took.
func RecordRunDuration(run string, latencyMs float64) {
	globalManager.runDuration.WithLabelValues(run).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format for the
// node-exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoTextfilePath
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTextfile, err)
	}
	return nil
}
