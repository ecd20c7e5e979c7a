package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memorySubscriber struct {
	id uuid.UUID
	fn Listener
}

// MemoryProvider is an in-process Provider. Emit delivers synchronously to
// every live subscriber in registration order; a listener must not call Emit,
// SignIn or SignOut on the same provider.
type MemoryProvider struct {
	// deliverMu serialises fan-out against cancellation so no listener runs
	// after its CancelFunc returns.
	deliverMu sync.Mutex

	mu           sync.Mutex
	subscribers  []memorySubscriber
	current      *Identity
	signOutErr   error
	signOutCalls int
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

func (p *MemoryProvider) Subscribe(_ context.Context, fn Listener) (CancelFunc, error) {
	if fn == nil {
		return nil, ErrNilListener
	}

	sub := memorySubscriber{id: uuid.New(), fn: fn}

	p.deliverMu.Lock()
	p.mu.Lock()
	p.subscribers = append(p.subscribers, sub)
	p.mu.Unlock()
	p.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.deliverMu.Lock()
			defer p.deliverMu.Unlock()
			p.remove(sub.id)
		})
	}, nil
}

func (p *MemoryProvider) remove(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subscribers {
		if s.id == id {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

// Emit records id as the current identity and notifies subscribers.
func (p *MemoryProvider) Emit(id *Identity) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.current = id.Clone()
	subs := make([]memorySubscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(id.Clone())
	}
}

// SignIn is shorthand for Emit(&id).
func (p *MemoryProvider) SignIn(id Identity) {
	p.Emit(&id)
}

// SignOut fails with the error configured through FailSignOut, otherwise it
// clears the current identity and emits none.
func (p *MemoryProvider) SignOut(context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	err := p.signOutErr
	p.mu.Unlock()

	if err != nil {
		return err
	}
	p.Emit(nil)
	return nil
}

// FailSignOut makes subsequent SignOut calls return err. Pass nil to restore.
func (p *MemoryProvider) FailSignOut(err error) {
	p.mu.Lock()
	p.signOutErr = err
	p.mu.Unlock()
}

// Current returns a copy of the last emitted identity.
func (p *MemoryProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// Subscribers returns the number of live subscriptions.
func (p *MemoryProvider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// SignOutCalls returns how many times SignOut was invoked.
func (p *MemoryProvider) SignOutCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOutCalls
}
