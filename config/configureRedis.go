package config

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedisServer connects the session store. Redis holds the single-use
// refresh tokens, so a failed ping is fatal: without it no session can
// outlive its access token.
func InitRedisServer(ctx context.Context) *redis.Client {
	addr := GetEnv("REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		Logger.Fatal("Redis unreachable", zap.String("addr", addr), zap.Error(err))
	}

	return client
}
