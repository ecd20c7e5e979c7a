package passportr

import (
	"context"
	"fmt"
	"sync"
)

// Phase is the lifecycle position of a Scope.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseListening
	PhaseTornDown
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseListening:
		return "listening"
	case PhaseTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Scope owns exactly one Store for one mounted lifetime. The only edges are
// Uninitialized → Listening (Mount) and Listening → TornDown (Unmount); a
// torn-down scope is never reused. Nesting scopes over the same consumers is
// not supported.
type Scope struct {
	engine *Engine
	store  *Store

	mu    sync.Mutex
	phase Phase
}

func newScope(e *Engine) *Scope {
	return &Scope{
		engine: e,
		store:  newStore(e),
	}
}

// Mount starts the store listening. Mounting from any phase other than
// Uninitialized returns ErrScopeTransition.
func (sc *Scope) Mount(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.phase != PhaseUninitialized {
		err := fmt.Errorf("%w: mount from %s", ErrScopeTransition, sc.phase)
		sc.engine.emitAudit(ctx, auditEventScopeMounted, false, sc.store.ID(), "", err, nil)
		return err
	}
	if err := sc.store.Initialize(ctx); err != nil {
		return err
	}
	sc.phase = PhaseListening

	sc.engine.metricInc(MetricScopeMounted)
	sc.engine.emitAudit(ctx, auditEventScopeMounted, true, sc.store.ID(), "", nil, nil)
	return nil
}

// Unmount tears the store down. It is a no-op on a scope that is already torn
// down and returns ErrScopeTransition on one that was never mounted.
func (sc *Scope) Unmount() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	switch sc.phase {
	case PhaseTornDown:
		return nil
	case PhaseUninitialized:
		err := fmt.Errorf("%w: unmount from %s", ErrScopeTransition, sc.phase)
		sc.engine.emitAudit(context.Background(), auditEventScopeUnmounted, false, sc.store.ID(), "", err, nil)
		return err
	}

	sc.store.Teardown()
	sc.phase = PhaseTornDown

	sc.engine.metricInc(MetricScopeUnmounted)
	sc.engine.emitAudit(context.Background(), auditEventScopeUnmounted, true, sc.store.ID(), "", nil, nil)
	return nil
}

func (sc *Scope) Phase() Phase {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.phase
}

// View returns the consumer-facing handle on the scope's store. It stays
// valid after Unmount and then reports the last applied state.
func (sc *Scope) View() View {
	return storeView{store: sc.store}
}

// StoreID returns the ID of the scope's store.
func (sc *Scope) StoreID() string {
	return sc.store.ID()
}
