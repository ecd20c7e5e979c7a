package passportr

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
)

// Engine is the caller-owned handle every scope hangs off. It replaces a
// process-wide "initialize once" guard: build one Engine per process with
// [New] and pass it where scopes are created.
//
// Engine methods are safe for concurrent use.
type Engine struct {
	config   Config
	provider identity.Provider
	markers  markers.Store
	logger   *slog.Logger
	audit    *auditDispatcher
	metrics  *Metrics
	degraded bool

	// owned holds providers Build created; Close releases them.
	owned     []func() error
	closeOnce sync.Once
}

// NewScope returns a scope in PhaseUninitialized with a fresh store.
func (e *Engine) NewScope() *Scope {
	return newScope(e)
}

func (e *Engine) newStore() *Store {
	return newStore(e)
}

// ProviderDegraded reports whether Build fell back to the unavailable
// provider.
func (e *Engine) ProviderDegraded() bool {
	return e != nil && e.degraded
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Close flushes the audit dispatcher and closes providers the engine built.
// Scopes are owned by their callers and are not unmounted by Close.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	e.closeOnce.Do(func() {
		for _, c := range e.owned {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
	return errors.Join(errs...)
}

// AuditDropped returns how many audit events were dropped because the
// buffer was full or the emitting context ended first.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditSinkFailures returns how many events the sink panicked on.
func (e *Engine) AuditSinkFailures() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.SinkFailures()
}

// MetricsSnapshot returns the current counters and, when enabled, the
// notify latency histogram.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}
