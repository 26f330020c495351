package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Guard admits at most one checkout per cart session at a time.
type Guard interface {
	// Acquire returns ok=false when a checkout for the session is already in
	// flight. The token identifies this holder to Release.
	Acquire(ctx context.Context, sessionID string) (token string, ok bool, err error)
	// Release frees the lock only while token still owns it.
	Release(ctx context.Context, sessionID, token string) error
	Held(ctx context.Context, sessionID string) (bool, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	CheckoutLockKey(sessionID string) string
}

type redisGuard struct {
	store lockStore
	ttl   time.Duration
}

// NewRedisGuard keeps the in-flight flag in Redis so it holds across API
// replicas. The ttl frees the lock if a process dies mid-checkout.
func NewRedisGuard(store lockStore, ttl time.Duration) (Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("checkout lock ttl must be positive")
	}
	return &redisGuard{store: store, ttl: ttl}, nil
}

func (g *redisGuard) Acquire(ctx context.Context, sessionID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.store.SetNX(ctx, g.store.CheckoutLockKey(sessionID), token, g.ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (g *redisGuard) Release(ctx context.Context, sessionID, token string) error {
	_, err := g.store.CompareAndDelete(ctx, g.store.CheckoutLockKey(sessionID), token)
	return err
}

func (g *redisGuard) Held(ctx context.Context, sessionID string) (bool, error) {
	return g.store.Exists(ctx, g.store.CheckoutLockKey(sessionID))
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: map[string]string{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, sessionID string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inFlight[sessionID]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	g.inFlight[sessionID] = token
	return token, true, nil
}

func (g *MemoryGuard) Release(_ context.Context, sessionID, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[sessionID] == token {
		delete(g.inFlight, sessionID)
	}
	return nil
}

func (g *MemoryGuard) Held(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inFlight[sessionID]
	return ok, nil
}
