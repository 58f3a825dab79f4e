// Package kv provides the single-document key-value store backing the portfolio.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when the key has never been written.
	ErrNotFound = errors.New("kv: key not found")
	// ErrNotConfigured is returned by every call on a store built without a URL.
	ErrNotConfigured = errors.New("kv: store not configured")

	errValueChanged = errors.New("kv: value changed")
)

// RedisStore reads and writes raw values in Redis or any protocol-compatible
// service (Upstash, Vercel KV).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses the URL and creates a client. An empty URL yields an
// unconfigured store so the process can still start and report the problem
// per request.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	if redisURL == "" {
		return &RedisStore{}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse kv url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Configured reports whether the store has a backing client.
func (s *RedisStore) Configured() bool {
	return s != nil && s.client != nil
}

// Get returns the raw value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, nil
}

// Set replaces the value under key. Values never expire.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent writes value only when key does not exist yet. It reports
// whether the write happened.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	if !s.Configured() {
		return false, ErrNotConfigured
	}
	ok, err := s.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("kv setnx %s: %w", key, err)
	}
	return ok, nil
}

// CompareAndSwap replaces the value under key only while it still equals old.
// It reports false without writing when the key is missing, holds something
// else, or is modified before the write commits.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error) {
	if !s.Configured() {
		return false, ErrNotConfigured
	}
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		if !bytes.Equal(current, old) {
			return errValueChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil), errors.Is(err, redis.TxFailedErr), errors.Is(err, errValueChanged):
		return false, nil
	default:
		return false, fmt.Errorf("kv compare-and-swap %s: %w", key, err)
	}
}

// Ping checks if the store is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if !s.Configured() {
		return nil
	}
	return s.client.Close()
}
