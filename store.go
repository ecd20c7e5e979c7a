package passportr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
)

type storeWatcher struct {
	id uint64
	fn func(State)
}

// Store holds the session state of one scope. Provider notifications are
// applied last-write-wins and fanned out to watchers synchronously, in the
// order they were applied.
//
// Watchers run on the goroutine that delivered the notification. They must
// not call Update, Initialize or Teardown on the same store.
type Store struct {
	id      string
	engine  *Engine
	markers markers.Store
	logger  *slog.Logger

	// lifeMu serialises Initialize against Teardown.
	lifeMu sync.Mutex
	// notifyMu serialises apply-and-notify so watchers observe updates in
	// application order.
	notifyMu sync.Mutex

	mu          sync.RWMutex
	bridge      *Bridge
	state       State
	initialized bool
	tornDown    bool
	watchers    []storeWatcher
	nextWatcher uint64
}

func newStore(e *Engine) *Store {
	id := uuid.NewString()
	return &Store{
		id:      id,
		engine:  e,
		markers: e.markers,
		logger:  e.logger.With("component", "store", "store_id", id),
		bridge:  NewBridge(e.provider),
		state:   State{Resolving: true},
	}
}

// ID identifies the store in logs and audit events.
func (s *Store) ID() string {
	return s.id
}

// Initialize starts listening to the provider. While listening it does not
// subscribe again. A provider that cannot be subscribed to is replaced by the
// unavailable stand-in, so the store still resolves to signed out; that
// failure is logged and audited rather than returned. After Teardown it
// returns ErrStoreTornDown.
func (s *Store) Initialize(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.RLock()
	tornDown, initialized, bridge := s.tornDown, s.initialized, s.bridge
	s.mu.RUnlock()

	if tornDown {
		s.engine.emitAudit(ctx, auditEventStoreInitialized, false, s.id, "", ErrStoreTornDown, nil)
		return ErrStoreTornDown
	}
	if initialized {
		return nil
	}

	err := bridge.Attach(ctx, s.Update)
	if err != nil {
		s.logger.Error("identity provider subscription failed", "error", err, "surface", surfaceFromContext(ctx))
		s.engine.metricInc(MetricProviderUnavailable)
		s.engine.emitAudit(ctx, auditEventProviderUnavailable, false, s.id, "", err, nil)

		bridge = NewBridge(identity.Unavailable(err))
		if attachErr := bridge.Attach(ctx, s.Update); attachErr != nil {
			// Unavailable only rejects a nil listener.
			return attachErr
		}
	}

	s.mu.Lock()
	s.bridge = bridge
	s.initialized = true
	s.mu.Unlock()

	s.engine.metricInc(MetricStoreInitialized)
	s.engine.emitAudit(ctx, auditEventStoreInitialized, err == nil, s.id, "", err, nil)
	s.logger.Debug("session store listening", "degraded", err != nil)
	return nil
}

// Update applies a provider notification: id (nil for none) replaces the
// current identity and Resolving becomes false. Watchers are notified on
// every call, including repeats of the same value. Updates after Teardown
// are discarded.
func (s *Store) Update(id *identity.Identity) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		s.engine.metricInc(MetricNotificationDiscarded)
		s.logger.Debug("discarding notification after teardown")
		return
	}
	prev := userID(s.state.Identity)
	s.state = State{Identity: id.Clone(), Resolving: false}
	next := s.state
	watchers := make([]storeWatcher, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	s.engine.metricInc(MetricNotificationApplied)
	if cur := userID(next.Identity); cur != prev {
		s.logger.Info("session identity changed", "user_id", cur, "previous_user_id", prev)
		s.engine.emitAudit(context.Background(), auditEventIdentityChanged, true, s.id, cur, nil, func() map[string]string {
			return map[string]string{"previous_user_id": prev}
		})
	}

	if len(watchers) == 0 {
		return
	}
	start := time.Now()
	for _, w := range watchers {
		w.fn(next.clone())
	}
	s.engine.metricObserve(MetricNotifyLatency, time.Since(start))
}

// Teardown cancels the provider subscription. It is safe to call when nothing
// is subscribed and safe to call repeatedly. No notification is applied once
// Teardown has started, even from a provider that keeps calling back.
func (s *Store) Teardown() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	already := s.tornDown
	s.tornDown = true
	bridge := s.bridge
	s.mu.Unlock()

	bridge.Detach()
	if already {
		return
	}

	s.engine.metricInc(MetricStoreTornDown)
	s.engine.emitAudit(context.Background(), auditEventStoreTornDown, true, s.id, "", nil, nil)
	s.logger.Debug("session store torn down")
}

// SignOut asks the provider to end the session, then clears the local login
// markers. A provider failure is logged and swallowed; the markers are
// cleared regardless. The identity is left for the provider's next
// notification to change. The caller's ctx is the only bound on how long the
// provider may take; a nil ctx is treated as context.Background().
func (s *Store) SignOut(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.RLock()
	bridge := s.bridge
	uid := userID(s.state.Identity)
	s.mu.RUnlock()

	surface := surfaceFromContext(ctx)
	s.engine.metricInc(MetricSignOut)

	remoteErr := bridge.SignOut(ctx)
	if remoteErr != nil {
		s.logger.Warn("remote sign-out failed; clearing local markers anyway",
			"user_id", uid, "surface", surface, "error", remoteErr)
		s.engine.metricInc(MetricSignOutRemoteFailure)
		s.engine.emitAudit(ctx, auditEventSignOutRemoteFailure, false, s.id, uid, remoteErr, nil)
	}

	// The markers are cleared even when ctx is already done.
	if err := s.markers.Clear(context.WithoutCancel(ctx), markers.Keys()...); err != nil {
		s.logger.Warn("clearing local markers failed", "user_id", uid, "surface", surface, "error", err)
		s.engine.metricInc(MetricMarkerClearFailure)
		s.engine.emitAudit(ctx, auditEventMarkersClearFailure, false, s.id, uid, err, nil)
	}

	s.engine.emitAudit(ctx, auditEventSignOut, remoteErr == nil, s.id, uid, remoteErr, nil)
	s.logger.Info("sign-out completed", "user_id", uid, "surface", surface, "remote_ok", remoteErr == nil)
}

// State returns a snapshot. Mutating the returned identity does not affect
// the store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Watch registers fn to run after every applied update. The returned stop
// function is idempotent; a notification already being fanned out when stop
// is called may still reach fn.
func (s *Store) Watch(fn func(State)) (stop func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextWatcher++
	wid := s.nextWatcher
	s.watchers = append(s.watchers, storeWatcher{id: wid, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, w := range s.watchers {
				if w.id == wid {
					s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

func userID(id *identity.Identity) string {
	if id == nil {
		return ""
	}
	return id.ID
}
