package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	kv := NewKV(client)

	if err := kv.Set(ctx, "active-session:u1:g1", []byte(`{"score":3}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := kv.Get(ctx, "active-session:u1:g1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(raw) != `{"score":3}` {
		t.Fatalf("unexpected value %q", raw)
	}

	if err := kv.Del(ctx, "active-session:u1:g1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("active-session:u1:g1") {
		t.Fatalf("expected key removed")
	}
}

func TestKVMissIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t)
	kv := NewKV(client)

	_, ok, err := kv.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("miss should not error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestKVSetNXClaims(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	kv := NewKV(client)

	ok, err := kv.SetNX(ctx, "claim:u1:g1", []byte("1"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, _ = kv.SetNX(ctx, "claim:u1:g1", []byte("1"), time.Minute)
	if ok {
		t.Fatalf("second claim should be rejected")
	}

	mr.FastForward(2 * time.Minute)
	ok, _ = kv.SetNX(ctx, "claim:u1:g1", []byte("1"), time.Minute)
	if !ok {
		t.Fatalf("claim should succeed after ttl expiry")
	}
}

func TestRecentSet(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	recent := NewRecentSet(client, 7*24*time.Hour)

	if err := recent.Add(ctx, "u1", "g1", "who created one piece?", "what is a zanpakuto?"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Adding an existing member is a no-op, not a duplicate.
	if err := recent.Add(ctx, "u1", "g1", "who created one piece?"); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	members, err := recent.Members(ctx, "u1", "g1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if ttl := mr.TTL("recent-question-set:u1:g1"); ttl <= 0 {
		t.Fatalf("expected ttl on recent set, got %v", ttl)
	}
}
