package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisInvalidator invalidates cache scopes by deleting their Redis keys.
type RedisInvalidator struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisInvalidator connects to Redis and verifies the connection.
func NewRedisInvalidator(addr, password string, logger *slog.Logger) (*RedisInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis connection established", "addr", addr)

	return &RedisInvalidator{client: client, logger: logger}, nil
}

// Invalidate deletes the given scope keys.
func (r *RedisInvalidator) Invalidate(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, scopes...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache scopes: %w", err)
	}

	r.logger.Debug("cache scopes invalidated", "scopes", scopes)
	return nil
}

// Close releases the Redis connection.
func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}
