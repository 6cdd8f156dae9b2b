package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warningf("redis get %q: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		logger.Warningf("marshal cache value for %q: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		logger.Warningf("redis set %q: %v", key, err)
	}
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warningf("redis del %v: %v", keys, err)
	}
}

func (c *redisCache) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warningf("redis scan %q: %v", prefix, err)
	}
}

func (c *redisCache) Generation(ctx context.Context, scope string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(scope)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		logger.Warningf("redis generation %q: %v", scope, err)
		return 0, errors.Trace(err)
	}
	return gen, nil
}

// Bump uses INCR so every replica sees the same sequence.
func (c *redisCache) Bump(ctx context.Context, scope string) error {
	if err := c.client.Incr(ctx, GenerationKey(scope)).Err(); err != nil {
		logger.Warningf("redis incr %q: %v", scope, err)
		return errors.Trace(err)
	}
	return nil
}
