// Package cache holds request idempotency keys in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const pending = "pending"

var ErrInFlight = errors.New("request with this idempotency key is in progress")

// IdempotencyStore remembers the outcome of a keyed request.
//
// Claim returns ("", true) when the caller owns the key and must call
// Complete or Release. Otherwise it returns the stored result, or ErrInFlight
// while the first request is still running.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (result string, owner bool, err error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func redisKey(key string) string {
	return "idempotency:" + key
}

func (r *Redis) Claim(ctx context.Context, key string) (string, bool, error) {
	ok, err := r.rdb.SetNX(ctx, redisKey(key), pending, r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := r.rdb.Get(ctx, redisKey(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// expired between SETNX and GET
		return r.Claim(ctx, key)
	case err != nil:
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	case val == pending:
		return "", false, ErrInFlight
	}
	return val, false, nil
}

func (r *Redis) Complete(ctx context.Context, key, result string) error {
	return r.rdb.Set(ctx, redisKey(key), result, r.ttl).Err()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisKey(key)).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Memory is the single-process store used when Redis is not configured.
type Memory struct {
	mu   sync.Mutex
	vals map[string]string
}

func NewMemory() *Memory {
	return &Memory{vals: make(map[string]string)}
}

func (m *Memory) Claim(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.vals[key]
	if !ok {
		m.vals[key] = pending
		return "", true, nil
	}
	if val == pending {
		return "", false, ErrInFlight
	}
	return val, false, nil
}

func (m *Memory) Complete(_ context.Context, key, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = result
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return nil
}
