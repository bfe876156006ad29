package runlocker

import "time"

// Metrics provides observability for Locker operations.
type Metrics interface {
	// Increment increases a counter by 1
	Increment(name string, tags ...string)

	// Gauge sets an absolute value
	Gauge(name string, value float64, tags ...string)

	// Histogram records a value distribution (latency, size, etc)
	Histogram(name string, value float64, tags ...string)

	// Timing records a duration
	Timing(name string, duration time.Duration, tags ...string)
}

// NoOpMetrics is a metrics collector that does nothing
type NoOpMetrics struct{}

func (m *NoOpMetrics) Increment(name string, tags ...string)                     {}
func (m *NoOpMetrics) Gauge(name string, value float64, tags ...string)          {}
func (m *NoOpMetrics) Histogram(name string, value float64, tags ...string)      {}
func (m *NoOpMetrics) Timing(name string, duration time.Duration, tags ...string) {}

// InMemoryMetrics stores metrics in memory for testing
type InMemoryMetrics struct {
	Counters   map[string]int
	Gauges     map[string]float64
	Histograms map[string][]float64
	Timings    map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		Counters:   make(map[string]int),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string][]float64),
		Timings:    make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Increment(name string, tags ...string) {
	m.Counters[name]++
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...string) {
	m.Gauges[name] = value
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...string) {
	m.Histograms[name] = append(m.Histograms[name], value)
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...string) {
	m.Timings[name] = append(m.Timings[name], duration)
}

// Metric names
const (
	MetricLockAcquired      = "runlocker.lock.acquired"
	MetricLockFailed        = "runlocker.lock.failed"
	MetricLockDuration      = "runlocker.lock.duration"
	MetricLockContention    = "runlocker.lock.contention"    // attempts needed to acquire, including the first
	MetricLockTimeout       = "runlocker.lock.timeout"       // acquisitions that exhausted the retry budget
	MetricLockWaitTime      = "runlocker.lock.wait_duration" // time spent waiting across all attempts
	MetricLockReentrant     = "runlocker.lock.reentrant"     // acquisitions short-circuited by the reentrancy frame
	MetricLockExtended      = "runlocker.lock.extended"      // successful automatic lease extensions
	MetricLockExtendFailed  = "runlocker.lock.extend_failed" // extensions that lost the lease
	MetricLockActive        = "runlocker.lock.active"        // gauge: live leases observed by the inspector
	MetricLockForceRelease  = "runlocker.lock.force_release"
	MetricAuditWriteSuccess = "runlocker.audit.write.success"
	MetricAuditWriteError   = "runlocker.audit.write.error"
)

// Production integrations:
//
// For Prometheus (github.com/prometheus/client_golang), see prometheus_metrics.go.
//
// For Datadog (github.com/DataDog/datadog-go/statsd):
//   type DatadogMetrics struct { client *statsd.Client }
//   func (m *DatadogMetrics) Increment(name string, tags ...string) {
//       m.client.Incr(name, tags, 1)
//   }
