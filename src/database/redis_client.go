package database

import (
	"context"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis connects to Redis when an address is configured. An empty
// address leaves RedisClient nil and callers fall back to the in-memory cache.
func InitRedis(ctx context.Context, addr string) error {
	if addr == "" {
		logger.Infof("REDIS_URI not set, Redis disabled")
		return nil
	}
	c := redis.NewClient(&redis.Options{
		Addr:     addr, // เช่น localhost:6379
		Password: "",
		DB:       0,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return errors.Annotatef(err, "pinging Redis at %s", addr)
	}
	RedisClient = c
	logger.Infof("Redis connected at %s", addr)
	return nil
}

// PingRedis reports "disabled" when Redis is not configured.
func PingRedis(ctx context.Context) string {
	if RedisClient == nil {
		return "disabled"
	}
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return "down"
	}
	return "up"
}

func CloseRedis() error {
	if RedisClient == nil {
		return nil
	}
	return errors.Trace(RedisClient.Close())
}
