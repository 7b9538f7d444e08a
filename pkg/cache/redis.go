package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-sentinel/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries in a Redis instance. Useful when several
// service replicas should share one cache. TTL enforcement is native, but
// entries still carry their own insertion timestamp so readers apply the
// same expiry rule on every backend.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to the Redis instance named by REDIS_URL.
func NewRedisBackend(ctx context.Context) (*RedisBackend, error) {
	redisURL := config.GetEnv("REDIS_URL", "redis://localhost:6379")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis cache backend", "addr", opt.Addr)
	return &RedisBackend{client: client}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisBackend) ForEach(ctx context.Context, fn func(key string, data []byte) error) error {
	iter := r.client.Scan(ctx, 0, "*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(key, data); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
