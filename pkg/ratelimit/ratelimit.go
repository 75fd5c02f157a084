// Package ratelimit implements fixed-window limits over an expiring counter
// store. The store is constructed once per process and passed to callers.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store increments a counter that expires window after its first increment
// and returns the new value together with the time left until expiry.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Limiter allows up to limit events per key per window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func NewLimiter(store Store, limit int, window time.Duration, prefix string) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, limit: limit, window: window, prefix: prefix}
}

// Allow records one event for key. A nil limiter or a non-positive limit
// allows everything.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil || l.store == nil || l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	count, ttl, err := l.store.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if count > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - int(count), RetryAfter: ttl}, nil
}

// MemoryStore keeps counters in process memory. Expired entries are dropped
// lazily on access and by Cleanup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: time.Now}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(window)}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.expiresAt.Sub(now), nil
}

// Cleanup removes expired counters.
func (m *MemoryStore) Cleanup() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (m *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// RedisStore shares counters between processes using INCR and PEXPIRE.
type RedisStore struct {
	client goredis.UniversalClient
}

func NewRedisStore(client goredis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// A key without expiry is either new or lost its PEXPIRE to a crash.
	if count == 1 || ttl < 0 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}
