//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/jwt"
)

func TestForeignSignerTokenResolvesSignedOut(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, mode.setup(t), "client-a")
			view := h.mount(t).View()

			if _, err := h.signer.SignIn(ctx, identity.Identity{ID: "u1"}); err != nil {
				t.Fatalf("sign in: %v", err)
			}
			waitFor(t, view, "u1", signedInAs("u1"))

			_, otherKey, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				t.Fatalf("generate key: %v", err)
			}
			tokens, err := jwt.NewManager(jwt.Config{TTL: time.Hour, PrivateKey: otherKey, Issuer: h.cfg.Provider.JWT.Issuer})
			if err != nil {
				t.Fatalf("token manager: %v", err)
			}
			forger, err := identity.NewRedisProvider(h.rdb, tokens, identity.RedisConfig{Prefix: h.cfg.Provider.RedisPrefix})
			if err != nil {
				t.Fatalf("forger: %v", err)
			}
			if _, err := forger.SignIn(ctx, identity.Identity{ID: "mallory"}); err != nil {
				t.Fatalf("forged sign in: %v", err)
			}

			st := waitFor(t, view, "forged token rejected", signedOut)
			if st.Identity != nil {
				t.Fatalf("expected forged identity discarded, got %+v", st.Identity)
			}
		})
	}
}

func TestWrongIssuerTokenResolvesSignedOut(t *testing.T) {
	h := newHarness(t, redisModes(t)[0].setup(t), "client-a")
	view := h.mount(t).View()
	waitFor(t, view, "initial signed-out state", signedOut)

	tokens, err := jwt.NewManager(jwt.Config{TTL: time.Hour, PrivateKey: h.cfg.Provider.JWT.PrivateKey, Issuer: "someone-else"})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	other, err := identity.NewRedisProvider(h.rdb, tokens, identity.RedisConfig{Prefix: h.cfg.Provider.RedisPrefix})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := other.SignIn(context.Background(), identity.Identity{ID: "u1"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if st := view.State(); st.Identity != nil {
		t.Fatalf("expected wrong-issuer token discarded, got %+v", st.Identity)
	}
}
