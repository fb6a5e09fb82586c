package app

import (
	"context"
	"testing"
	"time"

	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
)

type staticLister struct {
	records []domain.CompletionRecord
}

func (l *staticLister) ForDay(_ context.Context, serviceDate string) ([]domain.CompletionRecord, error) {
	var out []domain.CompletionRecord
	for _, rec := range l.records {
		if rec.ServiceDate == serviceDate {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestResetMarkerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	days, _ := domain.NewDayClock("09:00", "UTC")
	coord := NewResetCoordinator(memory.NewTier(), &staticLister{}, days, 48*time.Hour)

	done, err := coord.AlreadyReset(ctx, "2026-01-05")
	if err != nil || done {
		t.Fatalf("fresh day should not be marked: done=%v err=%v", done, err)
	}
	if err := coord.MarkReset(ctx, "2026-01-05"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if done, _ := coord.AlreadyReset(ctx, "2026-01-05"); !done {
		t.Fatalf("expected day marked")
	}
	// Re-marking is harmless.
	if err := coord.MarkReset(ctx, "2026-01-05"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
}

func TestCompletionsForDaySnapshot(t *testing.T) {
	ctx := context.Background()
	days, _ := domain.NewDayClock("09:00", "UTC")
	lister := &staticLister{records: []domain.CompletionRecord{
		{ParticipantID: "u1", CommunityID: "g1", ServiceDate: "2026-01-05", Score: 7, Tier: 7},
		{ParticipantID: "u2", CommunityID: "g1", ServiceDate: "2026-01-04", Score: 3, Tier: 3},
	}}
	coord := NewResetCoordinator(memory.NewTier(), lister, days, 48*time.Hour)

	records, err := coord.CompletionsForDay(ctx, "2026-01-05")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ParticipantID != "u1" {
		t.Fatalf("expected only that day's completions, got %+v", records)
	}
}
