package identity

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryProviderDeliversInOrder(t *testing.T) {
	p := NewMemoryProvider()

	var got []string
	cancel, err := p.Subscribe(context.Background(), func(id *Identity) {
		if id == nil {
			got = append(got, "<none>")
			return
		}
		got = append(got, id.ID)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	p.SignIn(Identity{ID: "u1"})
	p.Emit(nil)
	p.SignIn(Identity{ID: "u2"})

	want := []string{"u1", "<none>", "u2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMemoryProviderNoDeliveryAfterCancel(t *testing.T) {
	p := NewMemoryProvider()

	calls := 0
	cancel, err := p.Subscribe(context.Background(), func(*Identity) { calls++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	p.SignIn(Identity{ID: "u1"})
	cancel()
	cancel()
	p.SignIn(Identity{ID: "u2"})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if p.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", p.Subscribers())
	}
}

func TestMemoryProviderSignOut(t *testing.T) {
	p := NewMemoryProvider()
	p.SignIn(Identity{ID: "u1"})

	var last *Identity
	seen := false
	cancel, _ := p.Subscribe(context.Background(), func(id *Identity) {
		seen = true
		last = id
	})
	defer cancel()

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if !seen || last != nil {
		t.Fatalf("expected a none notification, seen=%v last=%v", seen, last)
	}
	if p.Current() != nil {
		t.Fatal("expected no current identity after sign out")
	}

	boom := errors.New("network down")
	p.SignIn(Identity{ID: "u2"})
	p.FailSignOut(boom)
	if err := p.SignOut(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected configured failure, got %v", err)
	}
	if cur := p.Current(); cur == nil || cur.ID != "u2" {
		t.Fatalf("failed sign out must not change identity, got %v", cur)
	}
	if p.SignOutCalls() != 2 {
		t.Fatalf("expected 2 sign out calls, got %d", p.SignOutCalls())
	}
}

func TestMemoryProviderRejectsNilListener(t *testing.T) {
	if _, err := NewMemoryProvider().Subscribe(context.Background(), nil); !errors.Is(err, ErrNilListener) {
		t.Fatalf("expected ErrNilListener, got %v", err)
	}
}

func TestIdentityCloneIsDeep(t *testing.T) {
	orig := &Identity{ID: "u1", Metadata: map[string]string{"city": "porto"}}
	c := orig.Clone()
	c.Metadata["city"] = "faro"
	if orig.Metadata["city"] != "porto" {
		t.Fatal("clone shares metadata map with original")
	}

	var none *Identity
	if none.Clone() != nil {
		t.Fatal("clone of nil must be nil")
	}
}

func TestUnavailableProvider(t *testing.T) {
	cause := errors.New("missing api key")
	p := Unavailable(cause)

	got := make(chan *Identity, 2)
	cancel, err := p.Subscribe(context.Background(), func(id *Identity) { got <- id })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel()

	if len(got) > 1 {
		t.Fatalf("expected at most one notification, got %d", len(got))
	}
	close(got)
	for id := range got {
		if id != nil {
			t.Fatalf("unavailable provider must only report none, got %v", id)
		}
	}

	err = p.SignOut(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
