package identity

import (
	"context"
	"fmt"
	"sync"
)

type unavailableProvider struct {
	cause error
}

// Unavailable returns the stand-in used when the real provider could not be
// configured. Every subscription receives a single asynchronous "no session"
// notification and nothing afterwards; SignOut always fails with
// ErrUnavailable.
func Unavailable(cause error) Provider {
	return &unavailableProvider{cause: cause}
}

func (p *unavailableProvider) Subscribe(_ context.Context, fn Listener) (CancelFunc, error) {
	if fn == nil {
		return nil, ErrNilListener
	}

	var (
		mu      sync.Mutex
		stopped bool
		once    sync.Once
	)
	done := make(chan struct{})

	go func() {
		defer close(done)
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			fn(nil)
		}
	}()

	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			<-done
		})
	}, nil
}

func (p *unavailableProvider) SignOut(context.Context) error {
	if p.cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, p.cause)
}
