package passportr

import (
	"context"
	"sync"

	"github.com/passportr/passportr/identity"
)

// Bridge adapts an identity.Provider for one store. It owns the provider's
// cancel handle between Attach and Detach and invokes it exactly once.
type Bridge struct {
	provider identity.Provider

	mu     sync.Mutex
	cancel identity.CancelFunc
}

// NewBridge wraps provider. A nil provider is replaced by the unavailable
// stand-in.
func NewBridge(provider identity.Provider) *Bridge {
	if provider == nil {
		provider = identity.Unavailable(nil)
	}
	return &Bridge{provider: provider}
}

// Attach subscribes fn to the provider. While attached, further calls are
// no-ops and fn is ignored. The provider's Subscribe error is returned as is.
func (b *Bridge) Attach(ctx context.Context, fn identity.Listener) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil
	}
	cancel, err := b.provider.Subscribe(ctx, fn)
	if err != nil {
		return err
	}
	b.cancel = cancel
	return nil
}

// Detach cancels the subscription. It is a no-op when not attached.
func (b *Bridge) Detach() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// SignOut delegates to the provider. It blocks until the provider returns or
// ctx ends, whichever the provider honours.
func (b *Bridge) SignOut(ctx context.Context) error {
	return b.provider.SignOut(ctx)
}
