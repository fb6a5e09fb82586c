package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
)

type fakeDurable struct {
	records map[string]domain.CompletionRecord
	fail    bool
	reads   int
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{records: make(map[string]domain.CompletionRecord)}
}

func (f *fakeDurable) Read(_ context.Context, key string) (domain.CompletionRecord, bool, error) {
	f.reads++
	if f.fail {
		return domain.CompletionRecord{}, false, errors.New("durable down")
	}
	rec, ok := f.records[key]
	return rec, ok, nil
}

func (f *fakeDurable) Write(_ context.Context, key string, value domain.CompletionRecord) error {
	if f.fail {
		return errors.New("durable down")
	}
	f.records[key] = value
	return nil
}

func (f *fakeDurable) Delete(_ context.Context, key string) error {
	delete(f.records, key)
	return nil
}

func sampleRecord() domain.CompletionRecord {
	return domain.CompletionRecord{
		ParticipantID: "u1",
		CommunityID:   "g1",
		ServiceDate:   "2026-01-05",
		Score:         7,
		Tier:          7,
		CompletedAt:   time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC),
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New[domain.CompletionRecord]("completion",
		WithVolatile[domain.CompletionRecord](memory.NewTier()),
	)

	want := sampleRecord()
	if err := s.Write(ctx, "u1:g1:2026-01-05", want, time.Minute); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok, err := s.Read(ctx, "u1:g1:2026-01-05")
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestReadPrefersFasterTier(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	s := New[domain.CompletionRecord]("completion",
		WithMemory[domain.CompletionRecord](memory.NewTier()),
		WithVolatile[domain.CompletionRecord](memory.NewTier()),
		WithDurable[domain.CompletionRecord](durable, true),
	)

	if err := s.Write(ctx, "k", sampleRecord(), time.Minute); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok, _ := s.Read(ctx, "k"); !ok {
		t.Fatalf("expected hit")
	}
	if durable.reads != 0 {
		t.Fatalf("expected cache hit to skip durable tier, reads=%d", durable.reads)
	}
}

func TestDurableHitIsNotBackfilled(t *testing.T) {
	ctx := context.Background()
	volatile := memory.NewTier()
	durable := newFakeDurable()
	durable.records["k"] = sampleRecord()
	s := New[domain.CompletionRecord]("completion",
		WithVolatile[domain.CompletionRecord](volatile),
		WithDurable[domain.CompletionRecord](durable, true),
	)

	if _, ok, err := s.Read(ctx, "k"); !ok || err != nil {
		t.Fatalf("expected durable hit: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := volatile.Get(ctx, "completion:k"); ok {
		t.Fatalf("durable hit must not be written back into the volatile tier")
	}
	if durable.reads != 1 {
		t.Fatalf("expected one durable read, got %d", durable.reads)
	}

	// Every subsequent read keeps going to the durable tier.
	_, _, _ = s.Read(ctx, "k")
	if durable.reads != 2 {
		t.Fatalf("expected second durable read, got %d", durable.reads)
	}
}

func TestRequiredDurableFailurePropagates(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	durable.fail = true
	s := New[domain.CompletionRecord]("completion",
		WithVolatile[domain.CompletionRecord](memory.NewTier()),
		WithDurable[domain.CompletionRecord](durable, true),
	)

	if err := s.Write(ctx, "k", sampleRecord(), time.Minute); err == nil {
		t.Fatalf("expected durable write failure to propagate")
	}
}

func TestOptionalDurableFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	durable.fail = true
	s := New[domain.CompletionRecord]("history",
		WithVolatile[domain.CompletionRecord](memory.NewTier()),
		WithDurable[domain.CompletionRecord](durable, false),
	)

	if err := s.Write(ctx, "k", sampleRecord(), time.Minute); err != nil {
		t.Fatalf("optional durable failure should be absorbed, got %v", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	volatile := memory.NewTier()
	s := New[domain.CompletionRecord]("completion",
		WithVolatile[domain.CompletionRecord](volatile),
	)

	_ = s.Write(ctx, "u1:g1:2026-01-05", sampleRecord(), time.Minute)
	if _, ok, _ := volatile.Get(ctx, "completion:u1:g1:2026-01-05"); !ok {
		t.Fatalf("expected namespaced key in volatile tier")
	}
}
