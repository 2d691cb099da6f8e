package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "hemodilab:session:revoked:"

// Revocations remembers revoked session ids until they would have expired.
type Revocations interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// RedisRevocations stores revoked ids as expiring Redis keys so every
// process sharing the Redis instance sees them.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations creates a Redis-backed revocation list.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("lookup revoked session: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocations is the single-process fallback.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty in-memory revocation list.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, key)
		}
	}
	m.entries[id] = now.Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.entries[id]
	return ok && m.now().Before(until), nil
}
