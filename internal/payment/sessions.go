package payment

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderSession correlates one checkout attempt with a document. A document
// may accumulate several order sessions across retries; status is always
// resolved by document, never by a cached canonical order.
type OrderSession struct {
	OrderID    string    `json:"orderId"`
	DocumentID string    `json:"documentId"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SessionStore persists order sessions so a reloaded page can resolve its
// pending order.
type SessionStore interface {
	Save(ctx context.Context, s *OrderSession) error
	Get(ctx context.Context, orderID string) (*OrderSession, error)
	Delete(ctx context.Context, orderID string) error
}

// RedisSessionStore keeps order sessions as JSON under
// "order:<orderID>" with TTL = expiresAt - now.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore creates a Redis-backed order session store. Prefix
// may be empty.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "order:"
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (r *RedisSessionStore) key(orderID string) string {
	return r.prefix + orderID
}

func (r *RedisSessionStore) Save(ctx context.Context, s *OrderSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		// minimal TTL so Redis won't keep already-expired sessions
		exp = time.Second
	}
	return r.client.Set(ctx, r.key(s.OrderID), b, exp).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, orderID string) (*OrderSession, error) {
	b, err := r.client.Get(ctx, r.key(orderID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s OrderSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = r.client.Del(ctx, r.key(orderID)).Err()
		return nil, nil
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, r.key(orderID)).Err()
}

// MemorySessionStore is the in-process fallback used by tests and by
// deployments without Redis.
type MemorySessionStore struct {
	mu    sync.RWMutex
	store map[string]*OrderSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{store: make(map[string]*OrderSession)}
}

func (m *MemorySessionStore) Save(ctx context.Context, s *OrderSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.OrderID] = &cp
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, orderID string) (*OrderSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[orderID]
	if !ok {
		return nil, nil
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, orderID)
	return nil
}
