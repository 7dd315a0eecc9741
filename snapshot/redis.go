package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/n-r-w/apifetch"
)

var _ Store = (*RedisStore)(nil)

// RedisConfig holds Redis store configuration.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL is the lifetime of a snapshot; zero keeps it forever.
	TTL time.Duration
}

// RedisStore keeps snapshots in Redis as JSON.
type RedisStore struct {
	client redis.UniversalClient
	config RedisConfig
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client redis.UniversalClient, config RedisConfig) *RedisStore {
	return &RedisStore{
		client: client,
		config: config,
	}
}

// Save stores the snapshot under the key.
func (s *RedisStore) Save(ctx context.Context, key string, data apifetch.ApiData) error {
	b, err := encode(data)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.config.Prefix+key, b, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	return nil
}

// Load returns the snapshot stored under the key.
func (s *RedisStore) Load(ctx context.Context, key string) (apifetch.ApiData, error) {
	b, err := s.client.Get(ctx, s.config.Prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return decode(b)
}

// Delete removes the snapshot stored under the key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.config.Prefix+key).Err(); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}

	return nil
}
