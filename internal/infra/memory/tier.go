package memory

import (
	"context"
	"sync"
	"time"
)

// Tier is an in-process TTL'd key-value layer. It fronts the volatile tier
// in a dual-tier store and doubles as the whole volatile side when Redis is
// not configured.
type Tier struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewTier() *Tier {
	return &Tier{
		clock:   time.Now,
		entries: make(map[string]entry),
	}
}

// NewTierWithClock allows deterministic expiry in tests.
func NewTierWithClock(clock func() time.Time) *Tier {
	t := NewTier()
	t.clock = clock
	return t
}

func (t *Tier) Get(_ context.Context, key string) ([]byte, bool, error) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(t.clock()) {
		t.mu.Lock()
		delete(t.entries, key)
		t.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (t *Tier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = t.clock().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)

	t.mu.Lock()
	t.entries[key] = entry{value: cp, expiresAt: expiresAt}
	t.mu.Unlock()
	return nil
}

func (t *Tier) Del(_ context.Context, key string) error {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
	return nil
}

// SetNX stores value only if key is absent or expired. Mirrors the Redis
// claim used for atomic session creation so the storageless setup keeps
// the same guarantee.
func (t *Tier) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		if e.expiresAt.IsZero() || e.expiresAt.After(now) {
			return false, nil
		}
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	t.entries[key] = entry{value: cp, expiresAt: expiresAt}
	return true, nil
}
