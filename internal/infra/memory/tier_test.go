package memory

import (
	"context"
	"testing"
	"time"
)

func TestTierSetGetDel(t *testing.T) {
	ctx := context.Background()
	tier := NewTier()

	if err := tier.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := tier.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("get: %q ok=%v err=%v", got, ok, err)
	}

	if err := tier.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := tier.Get(ctx, "k"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestTierExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tier := NewTierWithClock(func() time.Time { return now })

	_ = tier.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok, _ := tier.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := tier.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestTierSetNX(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tier := NewTierWithClock(func() time.Time { return now })

	ok, err := tier.SetNX(ctx, "claim", []byte("1"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim should win: ok=%v err=%v", ok, err)
	}
	ok, _ = tier.SetNX(ctx, "claim", []byte("1"), time.Minute)
	if ok {
		t.Fatalf("second claim should lose")
	}

	now = now.Add(2 * time.Minute)
	ok, _ = tier.SetNX(ctx, "claim", []byte("1"), time.Minute)
	if !ok {
		t.Fatalf("claim should win again after expiry")
	}
}
