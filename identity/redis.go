package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/passportr/passportr/jwt"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "passportr:auth"

// RedisConfig configures a RedisProvider.
type RedisConfig struct {
	// Prefix namespaces the token key and event channel. Defaults to
	// "passportr:auth".
	Prefix string
	Logger *slog.Logger
}

// RedisProvider is a remote identity provider. The signed-in principal is
// stored as a signed identity token under <prefix>:token and every change is
// published on <prefix>:events; an empty payload means signed out.
type RedisProvider struct {
	redis  redis.UniversalClient
	tokens *jwt.Manager
	prefix string
	logger *slog.Logger
	closed atomic.Bool
}

func NewRedisProvider(client redis.UniversalClient, tokens *jwt.Manager, cfg RedisConfig) (*RedisProvider, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if tokens == nil {
		return nil, errors.New("token manager required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RedisProvider{
		redis:  client,
		tokens: tokens,
		prefix: cfg.Prefix,
		logger: cfg.Logger.With("component", "identity.redis"),
	}, nil
}

func (p *RedisProvider) tokenKey() string {
	return p.prefix + ":token"
}

func (p *RedisProvider) channel() string {
	return p.prefix + ":events"
}

// Subscribe confirms the Redis subscription before returning, then delivers
// the current state followed by every published change, in order, from a
// dedicated goroutine.
func (p *RedisProvider) Subscribe(ctx context.Context, fn Listener) (CancelFunc, error) {
	if fn == nil {
		return nil, ErrNilListener
	}
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}

	pubsub := p.redis.Subscribe(ctx, p.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSubscription{
		provider: p,
		pubsub:   pubsub,
		messages: pubsub.Channel(),
		fn:       fn,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go sub.run(runCtx)

	return sub.stop, nil
}

// Current reads the signed-in identity directly from Redis.
func (p *RedisProvider) Current(ctx context.Context) (*Identity, error) {
	token, err := p.redis.Get(ctx, p.tokenKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return p.decode(token)
}

// SignIn issues an identity token for id, stores it and publishes it. The key
// expires with the token, but expiry is not published: a live subscription
// keeps the identity until the next sign-in or sign-out event, and only a new
// subscription observes the expired session as signed out.
func (p *RedisProvider) SignIn(ctx context.Context, id Identity) (string, error) {
	if p.closed.Load() {
		return "", ErrProviderClosed
	}
	token, err := p.tokens.Issue(id.ID, id.Email, id.DisplayName, id.Metadata)
	if err != nil {
		return "", err
	}

	_, err = p.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.tokenKey(), token, p.tokens.TTL())
		pipe.Publish(ctx, p.channel(), token)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

// SignOut removes the stored token and publishes the signed-out state.
func (p *RedisProvider) SignOut(ctx context.Context) error {
	if p.closed.Load() {
		return ErrProviderClosed
	}
	_, err := p.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.tokenKey())
		pipe.Publish(ctx, p.channel(), "")
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close rejects further subscriptions and sign-outs. Existing subscriptions
// stay live until cancelled. The Redis client is owned by the caller.
func (p *RedisProvider) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *RedisProvider) decode(token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return FromClaims(claims), nil
}

// normalize maps any token into identity-or-none. Tokens that fail
// verification are treated as signed out.
func (p *RedisProvider) normalize(token string) *Identity {
	id, err := p.decode(token)
	if err != nil {
		p.logger.Warn("discarding unverifiable identity token", "error", err)
		return nil
	}
	return id
}

type redisSubscription struct {
	provider *RedisProvider
	pubsub   *redis.PubSub
	messages <-chan *redis.Message
	fn       Listener
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.done)

	current, err := s.provider.redis.Get(ctx, s.provider.tokenKey()).Result()
	switch {
	case err == nil:
		s.deliver(s.provider.normalize(current))
	case errors.Is(err, redis.Nil):
		s.deliver(nil)
	case ctx.Err() != nil:
		return
	default:
		s.provider.logger.Error("initial identity read failed", "error", err)
		s.deliver(nil)
	}

	for msg := range s.messages {
		s.deliver(s.provider.normalize(msg.Payload))
	}
}

func (s *redisSubscription) deliver(id *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.fn(id)
}

func (s *redisSubscription) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		s.cancel()
		if err := s.pubsub.Close(); err != nil {
			s.provider.logger.Debug("pubsub close", "error", err)
		}
		<-s.done
	})
}
