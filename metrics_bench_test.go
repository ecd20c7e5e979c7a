package passportr

import (
	"testing"
	"time"

	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
)

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricNotificationApplied)
		}
	})
}

func BenchmarkMetricsIncDisabledParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricNotificationApplied)
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	d := 120 * time.Microsecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricNotifyLatency, d)
		}
	})
}

func BenchmarkStoreUpdateWithWatchers(b *testing.B) {
	engine, err := New().
		WithProvider(identity.NewMemoryProvider()).
		WithMarkers(markers.NewMemoryStore()).
		WithConfig(Config{
			Provider: DefaultConfig().Provider,
			Markers:  DefaultConfig().Markers,
			Metrics:  MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
		}).
		Build()
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	defer engine.Close()

	store := engine.newStore()
	for i := 0; i < 4; i++ {
		store.Watch(func(State) {})
	}
	id := &identity.Identity{ID: "u1", Email: "u1@example.com"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Update(id)
	}
}
