package runlocker

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewPrometheusMetrics tests creating Prometheus metrics
func TestNewPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	if metrics == nil {
		t.Fatal("expected PrometheusMetrics, got nil")
	}

	if metrics.registry != registry {
		t.Error("registry not set correctly")
	}

	// Verify default metrics were registered
	if len(metrics.counters) == 0 {
		t.Error("expected counters to be registered")
	}
	if len(metrics.gauges) == 0 {
		t.Error("expected gauges to be registered")
	}
	if len(metrics.histograms) == 0 {
		t.Error("expected histograms to be registered")
	}
}

// TestNewPrometheusMetricsWithNilRegistry tests using default registry
func TestNewPrometheusMetricsWithNilRegistry(t *testing.T) {
	// Note: This will use the default Prometheus registry
	// We can't easily test this without polluting the global registry
	// So we skip this test or use a custom registry
	t.Skip("Skipping test that would pollute default registry")
}

// TestPrometheusMetricsIncrement tests counter increments
func TestPrometheusMetricsIncrement(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Increment(MetricLockAcquired, "lock_name", "orders")
	metrics.Increment(MetricLockAcquired, "lock_name", "inventory")
	metrics.Increment(MetricLockFailed, "lock_name", "orders")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if strings.Contains(mf.GetName(), "lock_acquired_total") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected lock_acquired_total metric to be registered")
	}
}

// TestPrometheusMetricsGauge tests gauge operations
func TestPrometheusMetricsGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Gauge(MetricLockActive, 5)
	metrics.Gauge(MetricLockActive, 2)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if strings.Contains(mf.GetName(), "lock_active") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected lock_active gauge to be registered")
	}
}

// TestPrometheusMetricsHistogram tests histogram observations
func TestPrometheusMetricsHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Histogram(MetricLockWaitTime, 0.1, "lock_name", "orders")
	metrics.Histogram(MetricLockWaitTime, 0.05, "lock_name", "orders")
	metrics.Histogram(MetricLockWaitTime, 0.15, "lock_name", "inventory")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if strings.Contains(mf.GetName(), "lock_wait_duration_seconds") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected lock wait duration histogram to be registered")
	}
}

// TestPrometheusMetricsTiming tests timing observations
func TestPrometheusMetricsTiming(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Timing(MetricLockDuration, 100*time.Millisecond, "lock_name", "orders")
	metrics.Timing(MetricLockDuration, 50*time.Millisecond, "lock_name", "orders")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if strings.Contains(mf.GetName(), "lock_duration_seconds") {
			found = true
			if mf.GetType() != 4 { // HISTOGRAM = 4
				t.Errorf("expected histogram type, got %v", mf.GetType())
			}
			break
		}
	}
	if !found {
		t.Error("expected lock duration metric")
	}
}

// TestPrometheusMetricsGetRegistry tests registry retrieval
func TestPrometheusMetricsGetRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	retrieved := metrics.GetRegistry()
	if retrieved != registry {
		t.Error("GetRegistry returned wrong registry")
	}
}

// TestPrometheusMetricsLabelExtraction tests label extraction via a dynamic metric
func TestPrometheusMetricsLabelExtraction(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Increment("runlocker.custom.counter", "resource", "orders", "outcome", "ok")
	metrics.Increment("runlocker.custom.counter", "resource", "inventory", "outcome", "fail")
}

// TestPrometheusMetricsAllMetricTypes tests all registered metric types
func TestPrometheusMetricsAllMetricTypes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.Increment(MetricLockAcquired, "lock_name", "orders")
	metrics.Increment(MetricLockFailed, "lock_name", "orders")
	metrics.Increment(MetricLockTimeout, "lock_name", "orders")
	metrics.Increment(MetricLockReentrant, "lock_name", "orders")
	metrics.Increment(MetricLockExtended, "lock_name", "orders")
	metrics.Increment(MetricLockExtendFailed, "lock_name", "orders")

	metrics.Gauge(MetricLockActive, 3)

	metrics.Histogram(MetricLockWaitTime, 0.075, "lock_name", "orders")
	metrics.Histogram(MetricLockContention, 2, "lock_name", "orders")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) < 5 {
		t.Errorf("expected at least 5 metric families, got %d", len(metricFamilies))
	}
}

// TestPrometheusMetricsImplementsInterface verifies interface implementation
func TestPrometheusMetricsImplementsInterface(t *testing.T) {
	var _ Metrics = &PrometheusMetrics{}
}

// TestPrometheusMetricsConcurrency tests concurrent metric updates
func TestPrometheusMetricsConcurrency(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				metrics.Increment(MetricLockAcquired, "lock_name", "concurrent")
				metrics.Gauge(MetricLockActive, float64(j))
				metrics.Histogram(MetricLockWaitTime, float64(j), "lock_name", "concurrent")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
