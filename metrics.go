package goBearer

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one internal counter or histogram.
type MetricID uint16

const (
	// MetricAuthInjected counts requests sent with a Bearer header.
	MetricAuthInjected MetricID = iota
	// MetricAuthMissing counts requests sent without a stored access token.
	MetricAuthMissing
	// MetricHarvestAccess counts access tokens harvested from token-issuing responses.
	MetricHarvestAccess
	// MetricHarvestRefresh counts refresh tokens harvested from token-issuing responses.
	MetricHarvestRefresh
	// MetricRefreshLeader counts refresh cycles actually driven to the network.
	MetricRefreshLeader
	// MetricRefreshFollower counts callers that joined an in-flight refresh.
	MetricRefreshFollower
	// MetricRefreshSuccess counts refresh cycles that produced a new access token.
	MetricRefreshSuccess
	// MetricRefreshNoToken counts refresh cycles resolved without a stored refresh token.
	MetricRefreshNoToken
	// MetricRefreshFailure counts refresh cycles that failed at the network or decode step.
	MetricRefreshFailure
	// MetricTokensPurged counts purges of both stored tokens after a rejected refresh.
	MetricTokensPurged
	// MetricRetrySuccess counts transparent retries that reached the server.
	MetricRetrySuccess
	// MetricRetryFailure counts transparent retries that failed in transit.
	MetricRetryFailure
	// MetricStoreReadError counts token store read failures (treated as absence).
	MetricStoreReadError
	// MetricStoreWriteError counts token store write failures (logged, not propagated).
	MetricStoreWriteError
	// MetricRefreshLatency is the refresh round-trip latency histogram.
	MetricRefreshLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// paddedCounter occupies a full cache line so that hot pipeline paths
// incrementing adjacent IDs do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the internal counter set. MetricRefreshLatency is the only
// histogram-backed ID; the refresh round trip is the one operation here whose
// duration is worth distributing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       [histBucketCount]uint64
}

// MetricsSnapshot is a point-in-time read model of the counter set.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter. A nil or disabled Metrics is a no-op.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a refresh latency sample. Only MetricRefreshLatency is
// histogram-backed.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRefreshLatency {
		return
	}
	atomic.AddUint64(&m.latency[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and the latency histogram into a read model.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.latency[i])
		}
		snap.Histograms[MetricRefreshLatency] = buckets
	}

	return snap
}

// bucketIndex maps a refresh round trip to its latency bucket. Bounds are
// wider than a local-path histogram would use: a refresh is a full network
// exchange.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
