package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/infrastructure/config"
)

// CooldownFactory picks the cooldown backend from configuration
type CooldownFactory struct {
	importConfig          config.ImportConfig
	client                *redis.Client
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CooldownFactoryOption is a functional option for configuring the factory
type CooldownFactoryOption func(*CooldownFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CooldownFactoryOption {
	return func(f *CooldownFactory) {
		f.logger = logger
	}
}

// WithRedisClient provides the shared Redis client. Without it the redis
// backend is unavailable.
func WithRedisClient(client *redis.Client) CooldownFactoryOption {
	return func(f *CooldownFactory) {
		f.client = client
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is
// unavailable. Default is true.
func WithInMemoryFallback(allow bool) CooldownFactoryOption {
	return func(f *CooldownFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCooldownFactory creates a new factory
func NewCooldownFactory(cfg config.ImportConfig, opts ...CooldownFactoryOption) *CooldownFactory {
	f := &CooldownFactory{
		importConfig:          cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateGate returns the configured gate. The redis backend falls back to
// memory when no client is available and fallback is allowed.
func (f *CooldownFactory) CreateGate() (CooldownGate, error) {
	if f.importConfig.Backend != "redis" {
		return NewInMemoryCooldown(), nil
	}
	if f.client != nil {
		f.logger.Info("using Redis import cooldown")
		return NewRedisCooldown(f.client), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for import cooldown but unavailable")
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory import cooldown. " +
		"Instances will not share cooldown windows.")
	return NewInMemoryCooldown(), nil
}
