package app

import (
	"context"
	"testing"
	"time"

	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
	"daily-trivia-service/internal/store"
)

func newCompletionHarness(t *testing.T, now *time.Time) *CompletionService {
	t.Helper()
	days, err := domain.NewDayClock("09:00", "UTC")
	if err != nil {
		t.Fatalf("day clock: %v", err)
	}
	completionStore := store.New[domain.CompletionRecord]("completion",
		store.WithVolatile[domain.CompletionRecord](memory.NewTier()))
	return NewCompletionServiceWithClock(completionStore, days, 25*time.Hour, func() time.Time { return *now })
}

func TestRecordIsAnUpsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc := newCompletionHarness(t, &now)

	if _, err := svc.Record(ctx, "u1", "g1", 5, 5); err != nil {
		t.Fatalf("first record: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := svc.Record(ctx, "u1", "g1", 8, 8); err != nil {
		t.Fatalf("second record: %v", err)
	}

	rec, done, err := svc.HasCompletedToday(ctx, "u1", "g1")
	if err != nil || !done {
		t.Fatalf("expected record: done=%v err=%v", done, err)
	}
	if rec.Score != 8 || rec.Tier != 8 {
		t.Fatalf("expected last write to win, got %+v", rec)
	}
	if rec.ServiceDate != "2026-01-05" {
		t.Fatalf("unexpected service date %s", rec.ServiceDate)
	}
}

func TestCompletionResetsAtServiceBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc := newCompletionHarness(t, &now)

	if _, err := svc.Record(ctx, "u1", "g1", 6, 6); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, done, _ := svc.HasCompletedToday(ctx, "u1", "g1"); !done {
		t.Fatalf("expected completion today")
	}

	// 08:30 the next morning is still the same service day (reset 09:00).
	now = time.Date(2026, 1, 6, 8, 30, 0, 0, time.UTC)
	if _, done, _ := svc.HasCompletedToday(ctx, "u1", "g1"); !done {
		t.Fatalf("expected completion to hold before the reset")
	}

	now = time.Date(2026, 1, 6, 9, 30, 0, 0, time.UTC)
	if _, done, _ := svc.HasCompletedToday(ctx, "u1", "g1"); done {
		t.Fatalf("expected a fresh day after the reset")
	}
}

func TestCompletionKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc := newCompletionHarness(t, &now)

	if _, err := svc.Record(ctx, "u1", "g1", 4, 4); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, done, _ := svc.HasCompletedToday(ctx, "u1", "g2"); done {
		t.Fatalf("other community must be unaffected")
	}
	if _, done, _ := svc.HasCompletedToday(ctx, "u2", "g1"); done {
		t.Fatalf("other participant must be unaffected")
	}
}
