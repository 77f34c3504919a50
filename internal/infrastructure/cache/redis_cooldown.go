package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coltrade/backend/internal/infrastructure/config"
)

const cooldownKeyPrefix = "coltrade:cooldown:"

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCooldown shares cooldown windows between instances. A window is a key
// created with SETNX and expiring after the window length.
type RedisCooldown struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCooldown creates a gate over an existing client
func NewRedisCooldown(client *redis.Client) *RedisCooldown {
	return &RedisCooldown{client: client, keyPrefix: cooldownKeyPrefix}
}

// Acquire starts a window for key unless one is still running
func (g *RedisCooldown) Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	if window <= 0 {
		return 0, nil
	}
	k := g.keyPrefix + key

	// the key can expire between SETNX and PTTL; retry once in that case
	for attempt := 0; attempt < 2; attempt++ {
		started, err := g.client.SetNX(ctx, k, time.Now().UnixMilli(), window).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to start cooldown: %w", err)
		}
		if started {
			return 0, nil
		}

		remaining, err := g.client.PTTL(ctx, k).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to read cooldown: %w", err)
		}
		if remaining > 0 {
			return remaining, nil
		}
	}
	return window, nil
}

// Backend names the implementation
func (g *RedisCooldown) Backend() string {
	return "redis"
}

var _ CooldownGate = (*RedisCooldown)(nil)
