package goBearer

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricAuthInjected)
	m.Inc(MetricRefreshLeader)
	m.Observe(MetricRefreshLatency, 40*time.Millisecond)

	if v := m.Value(MetricAuthInjected); v != 0 {
		t.Fatalf("disabled metrics incremented: %d", v)
	}

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", snap)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricAuthInjected)
	m.Observe(MetricRefreshLatency, time.Millisecond)

	if m.Value(MetricAuthInjected) != 0 {
		t.Fatal("nil metrics returned nonzero value")
	}
	if m.Enabled() {
		t.Fatal("nil metrics reported enabled")
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricAuthInjected)
	m.Inc(MetricAuthInjected)
	m.Inc(MetricRefreshFollower)

	if v := m.Value(MetricAuthInjected); v != 2 {
		t.Fatalf("MetricAuthInjected = %d, want 2", v)
	}
	if v := m.Value(MetricRefreshFollower); v != 1 {
		t.Fatalf("MetricRefreshFollower = %d, want 1", v)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricAuthInjected] != 2 {
		t.Fatalf("snapshot counter = %d, want 2", snap.Counters[MetricAuthInjected])
	}
	if snap.Counters[MetricRetrySuccess] != 0 {
		t.Fatal("untouched counter nonzero in snapshot")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	const (
		goroutines = 32
		increments = 4000
	)

	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				m.Inc(MetricAuthInjected)
			}
		}()
	}
	wg.Wait()

	if v := m.Value(MetricAuthInjected); v != goroutines*increments {
		t.Fatalf("lost increments: got %d, want %d", v, goroutines*increments)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []struct {
		d      time.Duration
		bucket int
	}{
		{10 * time.Millisecond, 0},
		{25 * time.Millisecond, 0},
		{26 * time.Millisecond, 1},
		{80 * time.Millisecond, 2},
		{200 * time.Millisecond, 3},
		{400 * time.Millisecond, 4},
		{900 * time.Millisecond, 5},
		{2 * time.Second, 6},
		{10 * time.Second, 7},
	}
	for _, s := range samples {
		m.Observe(MetricRefreshLatency, s.d)
	}

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricRefreshLatency]
	if !ok {
		t.Fatal("latency histogram missing from snapshot")
	}

	want := make([]uint64, histBucketCount)
	for _, s := range samples {
		want[s.bucket]++
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Fatalf("bucket %d = %d, want %d", i, buckets[i], want[i])
		}
	}
}

func TestMetricsHistogramRequiresOptIn(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Observe(MetricRefreshLatency, 40*time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Histograms) != 0 {
		t.Fatal("histogram recorded without EnableLatencyHistograms")
	}
}
