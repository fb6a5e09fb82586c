package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Tier is a byte-level cache layer (in-process map or Redis).
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Durable is a typed durable backend for one record kind. Implementations
// translate the namespaced key back into their own schema.
type Durable[T any] interface {
	Read(ctx context.Context, key string) (T, bool, error)
	Write(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
}

// DualTier layers an optional in-process memory tier and a volatile tier
// over an optional durable backend. Reads return the first hit, checking
// memory, then volatile, then durable; a durable hit is deliberately not
// written back into the volatile tier (short TTLs and low per-key write
// contention make the staleness window acceptable). Volatile writes are
// best-effort; durable write failures propagate only when the
// instantiation demands durability.
type DualTier[T any] struct {
	prefix          string
	memory          Tier
	volatile        Tier
	durable         Durable[T]
	durableRequired bool
}

// Option configures a DualTier.
type Option[T any] func(*DualTier[T])

// WithMemory adds an in-process layer in front of the volatile tier.
func WithMemory[T any](tier Tier) Option[T] {
	return func(s *DualTier[T]) { s.memory = tier }
}

// WithVolatile sets the volatile (Redis) tier.
func WithVolatile[T any](tier Tier) Option[T] {
	return func(s *DualTier[T]) { s.volatile = tier }
}

// WithDurable sets the durable backend. required controls whether its
// write failures propagate to callers.
func WithDurable[T any](d Durable[T], required bool) Option[T] {
	return func(s *DualTier[T]) {
		s.durable = d
		s.durableRequired = required
	}
}

// New builds a DualTier. prefix namespaces every key so unrelated data
// sharing the same Redis instance cannot collide.
func New[T any](prefix string, opts ...Option[T]) *DualTier[T] {
	s := &DualTier[T]{prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DualTier[T]) namespaced(key string) string {
	return s.prefix + ":" + key
}

// Write stores value under key in every configured layer.
func (s *DualTier[T]) Write(ctx context.Context, key string, value T, ttl time.Duration) error {
	nk := s.namespaced(key)
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", nk, err)
	}

	if s.memory != nil {
		if err := s.memory.Set(ctx, nk, raw, ttl); err != nil {
			log.Printf("memory tier write failed for %s: %v", nk, err)
		}
	}
	if s.volatile != nil {
		if err := s.volatile.Set(ctx, nk, raw, ttl); err != nil {
			log.Printf("volatile tier write failed for %s: %v", nk, err)
		}
	}
	if s.durable != nil {
		if err := s.durable.Write(ctx, key, value); err != nil {
			if s.durableRequired {
				return fmt.Errorf("durable write %s: %w", nk, err)
			}
			log.Printf("durable tier write failed for %s: %v", nk, err)
		}
	}
	return nil
}

// Read returns the first hit across the layers.
func (s *DualTier[T]) Read(ctx context.Context, key string) (T, bool, error) {
	var zero T
	nk := s.namespaced(key)

	for _, tier := range []Tier{s.memory, s.volatile} {
		if tier == nil {
			continue
		}
		raw, ok, err := tier.Get(ctx, nk)
		if err != nil {
			log.Printf("tier read failed for %s: %v", nk, err)
			continue
		}
		if !ok {
			continue
		}
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			log.Printf("corrupt cache entry %s: %v", nk, err)
			continue
		}
		return value, true, nil
	}

	if s.durable != nil {
		// No backfill into the volatile tier on a durable hit.
		value, ok, err := s.durable.Read(ctx, key)
		if err != nil {
			return zero, false, fmt.Errorf("durable read %s: %w", nk, err)
		}
		return value, ok, nil
	}
	return zero, false, nil
}

// Delete removes key from every configured layer.
func (s *DualTier[T]) Delete(ctx context.Context, key string) error {
	nk := s.namespaced(key)
	if s.memory != nil {
		if err := s.memory.Del(ctx, nk); err != nil {
			log.Printf("memory tier delete failed for %s: %v", nk, err)
		}
	}
	if s.volatile != nil {
		if err := s.volatile.Del(ctx, nk); err != nil {
			log.Printf("volatile tier delete failed for %s: %v", nk, err)
		}
	}
	if s.durable != nil {
		if err := s.durable.Delete(ctx, key); err != nil {
			if s.durableRequired {
				return fmt.Errorf("durable delete %s: %w", nk, err)
			}
			log.Printf("durable tier delete failed for %s: %v", nk, err)
		}
	}
	return nil
}
