package passportr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEnv struct {
	engine   *Engine
	provider *identity.MemoryProvider
	markers  *markers.MemoryStore
	audit    *ChannelSink
}

// newTestEnv builds an engine over an in-memory provider and marker store
// with metrics on and audit events captured synchronously enough to inspect.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: false}

	env := &testEnv{
		provider: identity.NewMemoryProvider(),
		markers:  markers.NewMemoryStore(),
		audit:    NewChannelSink(64),
	}
	engine, err := New().
		WithConfig(cfg).
		WithProvider(env.provider).
		WithMarkers(env.markers).
		WithLogger(discardLogger()).
		WithAuditSink(env.audit).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	env.engine = engine
	return env
}

// waitAudit returns the first event of eventType read from sink, skipping
// others.
func waitAudit(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for audit event %q", eventType)
			return AuditEvent{}
		}
	}
}

// leakyProvider ignores cancellation and keeps the listener so tests can
// deliver notifications after teardown.
type leakyProvider struct {
	mu       sync.Mutex
	listener identity.Listener
	cancels  int
}

func (p *leakyProvider) Subscribe(_ context.Context, fn identity.Listener) (identity.CancelFunc, error) {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.cancels++
		p.mu.Unlock()
	}, nil
}

func (p *leakyProvider) SignOut(context.Context) error { return nil }

func (p *leakyProvider) emit(id *identity.Identity) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (p *leakyProvider) cancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancels
}

// failingProvider rejects every subscription.
type failingProvider struct {
	err error
}

func (p failingProvider) Subscribe(context.Context, identity.Listener) (identity.CancelFunc, error) {
	return nil, p.err
}

func (p failingProvider) SignOut(context.Context) error { return p.err }

// failingMarkers rejects every write.
type failingMarkers struct{}

func (failingMarkers) Set(context.Context, string, string) error { return markers.ErrMarkersBackend }
func (failingMarkers) Get(context.Context, string) (string, bool, error) {
	return "", false, markers.ErrMarkersBackend
}
func (failingMarkers) Clear(context.Context, ...string) error { return markers.ErrMarkersBackend }

var errRemote = errors.New("remote sign-out failed")

func mustMarkLoggedIn(t *testing.T, s markers.Store, email string) {
	t.Helper()
	if err := markers.MarkLoggedIn(context.Background(), s, email); err != nil {
		t.Fatalf("mark logged in: %v", err)
	}
}

func assertMarkersCleared(t *testing.T, s markers.Store) {
	t.Helper()
	for _, k := range markers.Keys() {
		if _, ok, err := s.Get(context.Background(), k); err != nil || ok {
			t.Fatalf("expected marker %q absent, present=%v err=%v", k, ok, err)
		}
	}
}

// waitState polls v until cond holds.
func waitState(t *testing.T, v View, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := v.State()
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for state, last %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
