// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"deployhub/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient shares the queue's Redis database; it is used for health checks.
var RedisClient *redis.Client

// InitRedis connects to the Redis instance backing the delivery queue.
func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// GetRedisClient returns the shared Redis client.
func GetRedisClient() *redis.Client {
	if RedisClient == nil {
		_ = InitRedis()
	}
	return RedisClient
}
