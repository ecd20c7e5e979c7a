package internaldefs

import (
	"testing"

	"github.com/passportr/passportr"
)

func TestEveryMetricIDExportedOnce(t *testing.T) {
	seen := make(map[passportr.MetricID]int)
	for _, def := range CounterDefs {
		seen[def.ID]++
	}
	for _, def := range HistogramDefs {
		seen[def.ID]++
	}
	for id := passportr.MetricStoreInitialized; id <= passportr.MetricNotifyLatency; id++ {
		if seen[id] != 1 {
			t.Fatalf("metric %d exported %d times", id, seen[id])
		}
	}
}

func TestBoundsAndSuffixesAlign(t *testing.T) {
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 {
		t.Fatalf("expected 8 bounds and suffixes, got %d and %d", len(HistogramBounds), len(HistogramBoundSuffix))
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("CumulativeBuckets = %v, want %v", got, want)
	}
}
