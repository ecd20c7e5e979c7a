package passportr

import (
	"context"

	"github.com/passportr/passportr/identity"
)

// State is a snapshot of a session store. Identity is nil when nobody is
// signed in. Resolving is true until the provider's first notification.
type State struct {
	Identity  *identity.Identity `json:"identity"`
	Resolving bool               `json:"resolving"`
}

// Authenticated reports whether the state is resolved with an identity.
func (s State) Authenticated() bool {
	return !s.Resolving && s.Identity != nil
}

func (s State) clone() State {
	return State{Identity: s.Identity.Clone(), Resolving: s.Resolving}
}

// View is the read-only capability handed to consumers of a scope. It cannot
// update, initialise, or tear down the underlying store.
type View interface {
	State() State
	Watch(fn func(State)) (stop func())
	SignOut(ctx context.Context)
}

type storeView struct {
	store *Store
}

func (v storeView) State() State {
	return v.store.State()
}

func (v storeView) Watch(fn func(State)) func() {
	return v.store.Watch(fn)
}

func (v storeView) SignOut(ctx context.Context) {
	v.store.SignOut(ctx)
}
