// Package otel publishes passportr session metrics through an OpenTelemetry
// meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per session counter,
// one Int64ObservableGauge per cumulative latency bucket and a gauge for a
// degraded identity provider. A single callback reads
// [passportr.Engine.MetricsSnapshot] on each collection cycle.
//
// The caller owns the MeterProvider; the exporter never changes engine state.
package otel
