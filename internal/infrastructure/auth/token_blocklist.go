package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlocklist invalidates tokens before they expire (logout)
type TokenBlocklist interface {
	// Revoke adds a token id. ttl should be the token's remaining lifetime.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether a token id was revoked and has not aged out
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisTokenBlocklist implements TokenBlocklist using Redis
type RedisTokenBlocklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlocklist creates a token blocklist with an existing Redis client
func NewRedisTokenBlocklist(client *redis.Client) *RedisTokenBlocklist {
	return &RedisTokenBlocklist{
		client:    client,
		keyPrefix: "coltrade:blocklist:jti:",
	}
}

// Revoke stores the token id with a TTL
func (b *RedisTokenBlocklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blocklist: %w", err)
	}
	return nil
}

// IsRevoked checks whether the token id is in the blocklist
func (b *RedisTokenBlocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blocklist: %w", err)
	}
	return exists > 0, nil
}

var _ TokenBlocklist = (*RedisTokenBlocklist)(nil)

// InMemoryTokenBlocklist keeps revoked token ids for the whole process.
// Not shared between instances.
type InMemoryTokenBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiration
	now     func() time.Time
}

// NewInMemoryTokenBlocklist creates a new in-memory token blocklist
func NewInMemoryTokenBlocklist() *InMemoryTokenBlocklist {
	return &InMemoryTokenBlocklist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds a token id until ttl elapses
func (b *InMemoryTokenBlocklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.revoked[jti] = now.Add(ttl)

	// drop expired entries while holding the lock
	for id, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, id)
		}
	}
	return nil
}

// IsRevoked checks whether the token id is blocked and not expired
func (b *InMemoryTokenBlocklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.revoked[jti]
	if !exists {
		return false, nil
	}
	if !b.now().Before(expiration) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

// Len returns the number of tracked token ids
func (b *InMemoryTokenBlocklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.revoked)
}

var _ TokenBlocklist = (*InMemoryTokenBlocklist)(nil)
