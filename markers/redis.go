package markers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps markers in Redis, one string key per marker.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	client string
	ttl    time.Duration
}

// NewRedisStore scopes markers to clientID, the Redis analogue of one
// browser's local storage. A zero ttl keeps markers until cleared.
func NewRedisStore(redisClient redis.UniversalClient, prefix, clientID string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "passportr:markers"
	}
	if clientID == "" {
		clientID = "default"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		client: clientID,
		ttl:    ttl,
	}
}

// key hash-tags the client so one DEL can clear every marker on a cluster.
func (s *RedisStore) key(marker string) string {
	return s.prefix + ":{" + s.client + "}:" + marker
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if !validKey(key) {
		return ErrUnknownMarker
	}
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMarkersBackend, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if !validKey(key) {
		return "", false, ErrUnknownMarker
	}
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrMarkersBackend, err)
	}
	return v, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		if !validKey(k) {
			return ErrUnknownMarker
		}
		full = append(full, s.key(k))
	}
	if err := s.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMarkersBackend, err)
	}
	return nil
}
