package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "moviescout:"

// RedisStore backs the metadata cache with Redis. Every backend error is
// downgraded to a miss or a dropped write so that an unreachable Redis never
// fails a request.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, logger: logger}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *RedisStore) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		r.logger.Warn("cache delete failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
