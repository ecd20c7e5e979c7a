//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/passportr/passportr"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/jwt"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes always includes miniredis. A real standalone Redis is added when
// REDIS_ADDR is set and a cluster when REDIS_CLUSTER_ADDRS is set
// (comma-separated).
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				return connect(t, redis.NewClient(&redis.Options{Addr: addr}))
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				return connect(t, redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)}))
			},
		})
	}

	return modes
}

func connect(t *testing.T, rdb redis.UniversalClient) redis.UniversalClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("cannot connect to Redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

// harness is one engine plus the remote signer that shares its key and
// prefixes. Prefixes are unique per test so real Redis needs no flushing.
type harness struct {
	cfg    passportr.Config
	engine *passportr.Engine
	signer *identity.RedisProvider
	rdb    redis.UniversalClient
}

func newHarness(t *testing.T, rdb redis.UniversalClient, clientID string) *harness {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	run := uuid.NewString()

	cfg := passportr.DefaultConfig()
	cfg.Provider.RedisPrefix = "it:" + run + ":auth"
	cfg.Provider.JWT.PrivateKey = priv
	cfg.Markers.RedisPrefix = "it:" + run + ":markers"
	cfg.Markers.ClientID = clientID
	cfg.Metrics.Enabled = true

	return buildHarness(t, rdb, cfg)
}

func buildHarness(t *testing.T, rdb redis.UniversalClient, cfg passportr.Config) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := passportr.New().WithConfig(cfg).WithRedis(rdb).WithLogger(logger).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	if engine.ProviderDegraded() {
		t.Fatal("expected the redis provider, got the unavailable fallback")
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:        cfg.Provider.JWT.TTL,
		PrivateKey: cfg.Provider.JWT.PrivateKey,
		Issuer:     cfg.Provider.JWT.Issuer,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	signer, err := identity.NewRedisProvider(rdb, tokens, identity.RedisConfig{
		Prefix: cfg.Provider.RedisPrefix,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return &harness{cfg: cfg, engine: engine, signer: signer, rdb: rdb}
}

func (h *harness) mount(t *testing.T) *passportr.Scope {
	t.Helper()
	sc := h.engine.NewScope()
	if err := sc.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(func() { _ = sc.Unmount() })
	return sc
}

func waitFor(t *testing.T, view passportr.View, what string, cond func(passportr.State) bool) passportr.State {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if st := view.State(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last state %+v", what, view.State())
	return passportr.State{}
}

func signedInAs(uid string) func(passportr.State) bool {
	return func(st passportr.State) bool {
		return !st.Resolving && st.Identity != nil && st.Identity.ID == uid
	}
}

func signedOut(st passportr.State) bool {
	return !st.Resolving && st.Identity == nil
}
