// Package cache stores derived ledger views in Redis with a small local LFU in front.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"github.com/tinoosan/banking/internal/ledger"
)

const localSize = 10000

// Cache is the generic key/value surface; values are stored as JSON.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes the value at key into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Delete(ctx context.Context, key string) error
}

type RedisCache struct {
	client *redis.Client
	cache  *cache.Cache
}

// NewRedis wraps an existing client. localTTL of zero disables the local LFU.
func NewRedis(client *redis.Client, localTTL time.Duration) *RedisCache {
	opts := &cache.Options{Redis: client}
	if localTTL > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, localTTL)
	}
	return &RedisCache{client: client, cache: cache.New(opts)}
}

// Ready pings Redis.
func (r *RedisCache) Ready(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.cache.Set(&cache.Item{Ctx: ctx, Key: key, Value: b, TTL: ttl})
}

func (r *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	var b []byte
	err := r.cache.Get(ctx, key, &b)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

// Statements adapts a Cache to the statement engine.
type Statements struct {
	c   Cache
	ttl time.Duration
}

// NewStatements keeps closed-period statements for ttl.
func NewStatements(c Cache, ttl time.Duration) *Statements {
	return &Statements{c: c, ttl: ttl}
}

func (s *Statements) GetStatement(ctx context.Context, key string) (ledger.Statement, bool, error) {
	var st ledger.Statement
	ok, err := s.c.Get(ctx, key, &st)
	return st, ok, err
}

func (s *Statements) SetStatement(ctx context.Context, key string, st ledger.Statement) error {
	return s.c.Set(ctx, key, st, s.ttl)
}
