package redis

import (
	"context"
	"errors"
	"time"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/ports/repository"
	"rag-chat-client/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

var _ repository.KeyValueStore = (*KVStore)(nil)

// KVStore persists client settings in Redis, so several terminals can share
// one session. A zero ttl keeps keys forever; otherwise every read refreshes it.
type KVStore struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

func NewKVStore(client RedisClient, ttl time.Duration) *KVStore {
	if ttl < 0 {
		ttl = 0
	}
	return &KVStore{client: client, ttl: ttl, prefix: "rag_chat:"}
}

func (s *KVStore) key(k string) string { return s.prefix + k }

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, redis.Nil) {
		metrics.IncKVOp("redis", "get", "miss")
		return "", domain.ErrNotFound
	}
	if err != nil {
		metrics.IncKVOp("redis", "get", "error")
		return "", err
	}
	metrics.IncKVOp("redis", "get", "hit")
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, s.key(key), s.ttl)
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl); err != nil {
		metrics.IncKVOp("redis", "set", "error")
		return err
	}
	metrics.IncKVOp("redis", "set", "ok")
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}

func (s *KVStore) Close() error { return s.client.Close() }
