package cache

import (
	"context"
	"sync"
	"time"
)

// CooldownGate rate limits an operation per key. Acquire either starts a new
// window and returns zero, or returns the time left in the running window.
type CooldownGate interface {
	Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, error)
	Backend() string
}

// InMemoryCooldown keeps the start of the last window per key for the whole
// process. Instances do not share state.
type InMemoryCooldown struct {
	mu     sync.Mutex
	starts map[string]time.Time
	now    func() time.Time
}

// NewInMemoryCooldown creates an empty gate
func NewInMemoryCooldown() *InMemoryCooldown {
	return &InMemoryCooldown{
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Acquire starts a window for key unless one is still running
func (g *InMemoryCooldown) Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if start, ok := g.starts[key]; ok {
		if elapsed := now.Sub(start); elapsed < window {
			return window - elapsed, nil
		}
	}
	g.starts[key] = now
	return 0, nil
}

// Reset forgets every window
func (g *InMemoryCooldown) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.starts = make(map[string]time.Time)
}

// Backend names the implementation
func (g *InMemoryCooldown) Backend() string {
	return "memory"
}

var _ CooldownGate = (*InMemoryCooldown)(nil)
