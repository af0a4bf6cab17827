package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("payment session not found")

// SessionStore keeps open sessions in a shared cache, so the cancelable /
// confirmed state survives reloads and is visible from every instance.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, orderID string) (*Session, error)
	Delete(ctx context.Context, orderID string) error
}

const sessionKeyPrefix = "payment:session:"

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (st *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := st.client.Set(ctx, sessionKeyPrefix+s.OrderID, data, st.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (st *RedisSessionStore) Get(ctx context.Context, orderID string) (*Session, error) {
	val, err := st.client.Get(ctx, sessionKeyPrefix+orderID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (st *RedisSessionStore) Delete(ctx context.Context, orderID string) error {
	if err := st.client.Del(ctx, sessionKeyPrefix+orderID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// MemorySessionStore is an in-process SessionStore for tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (st *MemorySessionStore) Save(_ context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.OrderID] = *s
	return nil
}

func (st *MemorySessionStore) Get(_ context.Context, orderID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[orderID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := s
	return &cp, nil
}

func (st *MemorySessionStore) Delete(_ context.Context, orderID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, orderID)
	return nil
}
