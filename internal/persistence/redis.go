package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soportehq/helpdesk/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Claim atomically registers key for ttl. When the key is already held
// the stored value is returned with claimed=false, so a retried webhook
// delivery can be answered with the result of the first one.
func (r *Redis) Claim(ctx context.Context, key, placeholder string, ttl time.Duration) (claimed bool, existing string, err error) {
	if r == nil || r.Client == nil {
		return false, "", errors.New("redis client not configured")
	}
	ok, err := r.Client.SetNX(ctx, key, placeholder, ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		// claim expired between SetNX and Get; treat as fresh
		return true, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return false, val, nil
}

// Store overwrites the value held under a claimed key.
func (r *Redis) Store(ctx context.Context, key, value string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Set(ctx, key, value, ttl).Err()
}
