package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/lot-ledger/internal/port"
)

const idempotencyKeyTTL = 24 * time.Hour

type RedisAdapter struct {
	client *redis.Client
}

var _ port.CacheRepository = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
