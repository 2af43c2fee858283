package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient provides the client backing the OTP verification and
// refresh session stores.
func NewRedisClient(lc fx.Lifecycle, cfg *RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Addr))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing Redis connection")
			return client.Close()
		},
	})
	return client, nil
}
