package lockguard

import (
	"context"
	"time"

	"github.com/comparepco/rentalcore/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lockguard",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLockerFromConfig),
)

// NewRedisClient dials redis when the write guard is enabled, otherwise
// returns nil and the guard degrades to a pass-through.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if !cfg.WriteGuard.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.WriteGuard.RedisAddr,
		Password: cfg.WriteGuard.RedisPassword,
		DB:       cfg.WriteGuard.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("write guard redis unreachable, continuing without guard", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func NewLockerFromConfig(client *redis.Client, cfg config.Config) *Locker {
	ttl := time.Duration(cfg.WriteGuard.LockTTLMillis) * time.Millisecond
	return NewLocker(client, ttl)
}
