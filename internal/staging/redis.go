package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "staging:"

// RedisStore keeps staged content in Redis so several API instances share it.
// Size is bounded by the server's maxmemory policy, not by the store.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps rdb. ttl <= 0 stores keys without expiry.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) Put(ctx context.Context, id string, payload []byte) error {
	if err := s.rdb.Set(ctx, redisKey(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("staging: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("staging: redis get: %w", err)
	}
	return b, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("staging: redis del: %w", err)
	}
	return n > 0, nil
}
