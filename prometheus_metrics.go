package runlocker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance.
// If registry is nil, uses the default Prometheus registry.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}

	pm.registerDefaultMetrics()
	return pm
}

// registerDefaultMetrics registers the standard runlocker metrics.
func (p *PrometheusMetrics) registerDefaultMetrics() {
	p.counters[MetricLockAcquired] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "acquired_total",
			Help:      "Total number of successful lock acquisitions",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockFailed] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "failed_total",
			Help:      "Total number of lock acquisition failures",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockTimeout] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "timeout_total",
			Help:      "Total number of acquisitions that exhausted the retry budget",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockReentrant] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "reentrant_total",
			Help:      "Total number of acquisitions short-circuited by an enclosing frame",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockExtended] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "extended_total",
			Help:      "Total number of successful automatic lease extensions",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockExtendFailed] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "extend_failed_total",
			Help:      "Total number of automatic extensions that lost the lease",
		},
		[]string{"lock_name"},
	)

	p.counters[MetricLockForceRelease] = promauto.With(p.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "force_release_total",
			Help:      "Total number of operator-initiated forced lease releases",
		},
		[]string{"key"},
	)

	p.histograms[MetricLockDuration] = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "duration_seconds",
			Help:      "Critical section execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"lock_name"},
	)

	p.histograms[MetricLockWaitTime] = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "wait_duration_seconds",
			Help:      "Cumulative time spent waiting across all acquisition attempts",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"lock_name"},
	)

	p.histograms[MetricLockContention] = promauto.With(p.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "contention_attempts",
			Help:      "Number of attempts needed before a lock was acquired",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"lock_name"},
	)

	p.gauges[MetricLockActive] = promauto.With(p.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "runlocker",
			Subsystem: "lock",
			Name:      "active",
			Help:      "Number of live leases observed in the coordination store",
		},
		[]string{},
	)
}

// Increment increments a Prometheus counter
func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	counter, ok := p.counters[name]
	if !ok {
		// Create dynamic counter if it doesn't exist
		counter = promauto.With(p.registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "runlocker",
				Name:      name,
				Help:      "Dynamic counter: " + name,
			},
			p.extractLabels(tags),
		)
		p.counters[name] = counter
	}

	labels := p.extractLabelValues(tags)
	counter.With(labels).Inc()
}

// Gauge sets a Prometheus gauge value
func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...string) {
	gauge, ok := p.gauges[name]
	if !ok {
		// Create dynamic gauge if it doesn't exist
		gauge = promauto.With(p.registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "runlocker",
				Name:      name,
				Help:      "Dynamic gauge: " + name,
			},
			p.extractLabels(tags),
		)
		p.gauges[name] = gauge
	}

	labels := p.extractLabelValues(tags)
	gauge.With(labels).Set(value)
}

// Histogram records a value in a Prometheus histogram
func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	histogram, ok := p.histograms[name]
	if !ok {
		// Create dynamic histogram if it doesn't exist
		histogram = promauto.With(p.registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "runlocker",
				Name:      name,
				Help:      "Dynamic histogram: " + name,
				Buckets:   prometheus.DefBuckets,
			},
			p.extractLabels(tags),
		)
		p.histograms[name] = histogram
	}

	labels := p.extractLabelValues(tags)
	histogram.With(labels).Observe(value)
}

// Timing records a duration in a Prometheus histogram
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name, duration.Seconds(), tags...)
}

// extractLabels extracts label names from tags (every even index)
func (p *PrometheusMetrics) extractLabels(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	labels := make([]string, 0, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		if i < len(tags) {
			labels = append(labels, tags[i])
		}
	}
	return labels
}

// extractLabelValues creates a label map from tags (key-value pairs)
func (p *PrometheusMetrics) extractLabelValues(tags []string) prometheus.Labels {
	if len(tags) == 0 {
		return prometheus.Labels{}
	}

	labels := make(prometheus.Labels)
	for i := 0; i < len(tags)-1; i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return p.registry
}
