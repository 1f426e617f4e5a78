package handlers

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTokenStore keeps issued refresh tokens in redis so logout can
// revoke them before expiry.
type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) SaveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return s.rdb.Set(ctx, "refresh:"+token, userID, ttl).Err()
}

func (s *RedisTokenStore) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, "refresh:"+token).Err()
}
