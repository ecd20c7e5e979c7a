// Package passportr provides the session core of the Passportr app: a session
// store holding the current identity, a bridge to an external identity
// provider, and a scope that owns exactly one store per mounted lifetime.
//
// The package is designed for concurrent use: provider callbacks arrive on
// provider goroutines and consumers read through a [View] from any goroutine.
//
// # Architecture boundaries
//
// passportr is the public surface. It exposes [Engine], [Builder], [Config],
// [Scope], [View] and value types ([State], [MetricsSnapshot], [AuditEvent]).
// Identity providers live in the identity package and local login markers in
// the markers package; neither imports passportr.
//
// # Lifecycle
//
// An [Engine] is built once per process with [New] and owned by the caller.
// Each [Scope] walks Uninitialized → Listening → TornDown and never returns to
// Uninitialized. Once torn down, no provider notification reaches its store.
//
// # Sign-out contract
//
// SignOut is best effort: a failing provider is logged and swallowed, and the
// local markers are cleared either way. Local and remote session state may
// therefore diverge until the provider next emits.
package passportr
