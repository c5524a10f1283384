package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"baterysul.com.br/ledger/pkg/global"
)

// RedisClient builds a client from REDIS_ADDRESS / REDIS_PASSWORD
func RedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     global.GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		Password: global.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       0,
		Protocol: 2,
	})
}

// Connect pings the server before handing back a store
func Connect(ctx context.Context) (*Store, error) {
	client := RedisClient()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	global.Logger().WithField("addr", client.Options().Addr).Info("Connected to Redis successfully")
	return NewStore(client, global.GetEnvOrDefault("REDIS_PREFIX", "baterysul:")), nil
}
