package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Record is what the registry keeps per API session.
type Record struct {
	ID        string          `json:"id"`
	Identity  domain.Identity `json:"identity"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Registry tracks live API sessions so tokens can be revoked before expiry.
type Registry interface {
	Create(ctx context.Context, identity *domain.Identity, ttl time.Duration) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Active(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

const redisKeyPrefix = "servicedesk:session:"

type redisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry stores sessions in Redis with the token TTL.
func NewRedisRegistry(client *redis.Client) Registry {
	return &redisRegistry{client: client}
}

func (r *redisRegistry) Create(ctx context.Context, identity *domain.Identity, ttl time.Duration) (*Record, error) {
	record := newRecord(identity, ttl)
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+record.ID, payload, ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return record, nil
}

func (r *redisRegistry) Get(ctx context.Context, id string) (*Record, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &record, nil
}

func (r *redisRegistry) Active(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

func (r *redisRegistry) Revoke(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}

type memoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Record
	now      func() time.Time
}

// NewMemoryRegistry keeps sessions in process. Used when no Redis address is
// configured; sessions die with the process.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{sessions: make(map[string]*Record), now: time.Now}
}

func (m *memoryRegistry) Create(_ context.Context, identity *domain.Identity, ttl time.Duration) (*Record, error) {
	record := newRecord(identity, ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[record.ID] = record
	return record, nil
}

func (m *memoryRegistry) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(record.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *memoryRegistry) Active(ctx context.Context, id string) (bool, error) {
	_, err := m.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryRegistry) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func newRecord(identity *domain.Identity, ttl time.Duration) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        uuid.NewString(),
		Identity:  *identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
