// Package prometheus renders passportr metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] reads from a [passportr.Engine]; mount
// [PrometheusExporter.Handler] on a route of your choice. Counters are named
// passportr_*_total and the one histogram is passportr_notify_latency_seconds.
// Nothing is registered globally.
package prometheus
