package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lgulliver/pdfbinder/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisCounterStore keeps counters in Redis so several server replicas
// sharing one workspace root agree on them
type RedisCounterStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCounterStore connects to Redis and verifies the connection
func NewRedisCounterStore(cfg *config.RedisConfig, ttl time.Duration) (*RedisCounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCounterStoreWithClient(client, cfg.KeyPrefix, ttl), nil
}

// NewRedisCounterStoreWithClient wraps an existing client
func NewRedisCounterStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCounterStore) key(sessionID string) string {
	return r.prefix + ":session:" + sessionID + ":next"
}

// Get returns the next index for a session
func (r *RedisCounterStore) Get(ctx context.Context, sessionID string) (int, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to get counter: %w", err)
	}

	next, err := strconv.Atoi(data)
	if err != nil || next < 1 {
		return 0, fmt.Errorf("corrupt counter value %q for session %s", data, sessionID)
	}
	return next, nil
}

// Set stores the next index for a session and refreshes its expiry
func (r *RedisCounterStore) Set(ctx context.Context, sessionID string, next int) error {
	if next < 1 {
		return fmt.Errorf("counter must be positive, got %d", next)
	}
	if err := r.client.Set(ctx, r.key(sessionID), next, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set counter: %w", err)
	}
	return nil
}

// Reset removes the counter for a session
func (r *RedisCounterStore) Reset(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisCounterStore) Close() error {
	return r.client.Close()
}
