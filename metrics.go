package passportr

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricStoreInitialized counts stores that started listening to their provider.
	MetricStoreInitialized MetricID = iota
	// MetricNotificationApplied counts provider notifications applied to a live store.
	MetricNotificationApplied
	// MetricNotificationDiscarded counts notifications that arrived after teardown.
	MetricNotificationDiscarded
	// MetricStoreTornDown counts store teardowns. Repeated teardowns count once.
	MetricStoreTornDown
	// MetricSignOut counts sign-out requests.
	MetricSignOut
	// MetricSignOutRemoteFailure counts sign-outs whose provider call failed.
	MetricSignOutRemoteFailure
	// MetricMarkerClearFailure counts sign-outs whose marker clear failed.
	MetricMarkerClearFailure
	// MetricProviderUnavailable counts fallbacks to the unavailable provider.
	MetricProviderUnavailable
	// MetricScopeMounted counts scopes that reached the listening phase.
	MetricScopeMounted
	// MetricScopeUnmounted counts scopes that reached the torn-down phase.
	MetricScopeUnmounted
	// MetricNotifyLatency is the histogram of watcher fan-out time per applied notification.
	MetricNotifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the notify latency histogram. A nil or
// disabled Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the histogram for id. Only MetricNotifyLatency
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricNotifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current values. Histograms are present only when
// latency histograms are enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricNotifyLatency].buckets[i])
		}
		s.Histograms[MetricNotifyLatency] = buckets
	}

	return s
}

// bucketIndex maps d onto the upper bounds 50µs, 100µs, 250µs, 500µs, 1ms,
// 5ms, 25ms and +Inf.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}
