package internaldefs

import (
	"github.com/passportr/passportr"
)

type CounterDef struct {
	ID   passportr.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   passportr.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: passportr.MetricStoreInitialized, Name: "passportr_store_initialized_total", Help: "Session stores that started listening to the identity provider."},
	{ID: passportr.MetricNotificationApplied, Name: "passportr_notification_applied_total", Help: "Identity notifications applied to a live store."},
	{ID: passportr.MetricNotificationDiscarded, Name: "passportr_notification_discarded_total", Help: "Identity notifications discarded because the store was torn down."},
	{ID: passportr.MetricStoreTornDown, Name: "passportr_store_torn_down_total", Help: "Session stores torn down."},
	{ID: passportr.MetricSignOut, Name: "passportr_sign_out_total", Help: "Sign-out requests."},
	{ID: passportr.MetricSignOutRemoteFailure, Name: "passportr_sign_out_remote_failure_total", Help: "Sign-outs whose identity provider call failed."},
	{ID: passportr.MetricMarkerClearFailure, Name: "passportr_marker_clear_failure_total", Help: "Sign-outs whose local marker clear failed."},
	{ID: passportr.MetricProviderUnavailable, Name: "passportr_provider_unavailable_total", Help: "Fallbacks to the unavailable identity provider."},
	{ID: passportr.MetricScopeMounted, Name: "passportr_scope_mounted_total", Help: "Scopes mounted."},
	{ID: passportr.MetricScopeUnmounted, Name: "passportr_scope_unmounted_total", Help: "Scopes unmounted."},
}

var HistogramDefs = []HistogramDef{
	{ID: passportr.MetricNotifyLatency, Name: "passportr_notify_latency_seconds", Help: "Watcher fan-out time per applied notification."},
}

const (
	AuditDroppedName = "passportr_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

	ProviderDegradedName = "passportr_provider_degraded"
	ProviderDegradedHelp = "1 when the engine runs on the unavailable identity provider."
)

// HistogramBounds are the bucket upper bounds in seconds, matching the core
// histogram's microsecond buckets.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
