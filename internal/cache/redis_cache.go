package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type sentValue struct {
	InternalID int64     `json:"internalId"`
	SentAt     time.Time `json:"sentAt"`
}

func (c *RedisCache) StoreSent(ctx context.Context, externalID string, internalID int64, sentAt time.Time) error {
	val := sentValue{
		InternalID: internalID,
		SentAt:     sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, "wamsg:"+externalID, b, c.ttl).Err()
}

func (c *RedisCache) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	return c.rdb.SetNX(ctx, "waevt:"+eventID, 1, c.ttl).Result()
}
