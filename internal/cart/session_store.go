package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/angelmondragon/devicehub-backend/pkg/redis"
)

// SessionStore persists cart snapshots per session id.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, state State) error
}

type redisCartClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(sessionID string) string
}

type redisSessionStore struct {
	client redisCartClient
	ttl    time.Duration
}

// NewRedisSessionStore stores carts as JSON with a sliding TTL refreshed on every save.
func NewRedisSessionStore(client redisCartClient, ttl time.Duration) (SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisSessionStore{client: client, ttl: ttl}, nil
}

// Load returns an empty cart when the session has no snapshot.
func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (State, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return State{Items: []LineItem{}}, nil
		}
		return State{}, fmt.Errorf("load cart snapshot: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if state.Items == nil {
		state.Items = []LineItem{}
	}
	return state, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

// MemorySessionStore keeps carts in process memory.
type MemorySessionStore struct {
	mu    sync.Mutex
	carts map[string]State
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{carts: map[string]State{}}
}

func (m *MemorySessionStore) Load(_ context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.carts[sessionID]
	if !ok {
		return State{Items: []LineItem{}}, nil
	}
	return state.clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, sessionID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = state.clone()
	return nil
}

// sessionLocks serializes load-transition-save cycles for the same session
// within one process.
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
