package repo

import (
	"Go_Attach/config"
	"Go_Attach/utils"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// InitRedis initializes the Redis client used for the heartbeat cache.
// It returns nil without error when REDIS_ENABLED is off.
func InitRedis(ctx context.Context) (*redis.Client, error) {
	if !config.AppConfig.RedisEnabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}
	log := utils.Logger()
	log.Info().Str("addr", client.Options().Addr).Msg("init redis success")
	Redis = client
	return client, nil
}
