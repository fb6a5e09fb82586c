package app

import (
	"context"
	"time"

	"daily-trivia-service/internal/domain"
)

// CompletionStore is how completion records are persisted (dual-tier).
type CompletionStore interface {
	Read(ctx context.Context, key string) (domain.CompletionRecord, bool, error)
	Write(ctx context.Context, key string, value domain.CompletionRecord, ttl time.Duration) error
}

// CompletionService answers "already played today" and records outcomes,
// keyed by (participant, community, service date).
type CompletionService struct {
	store CompletionStore
	days  domain.DayClock
	ttl   time.Duration
	clock func() time.Time
}

func NewCompletionService(store CompletionStore, days domain.DayClock, ttl time.Duration) *CompletionService {
	return &CompletionService{store: store, days: days, ttl: ttl, clock: time.Now}
}

// NewCompletionServiceWithClock is test-only for deterministic service
// dates.
func NewCompletionServiceWithClock(store CompletionStore, days domain.DayClock, ttl time.Duration, clock func() time.Time) *CompletionService {
	return &CompletionService{store: store, days: days, ttl: ttl, clock: clock}
}

func completionKey(participantID, communityID, serviceDate string) string {
	return participantID + ":" + communityID + ":" + serviceDate
}

// HasCompletedToday returns today's completion record for the key, if any.
func (s *CompletionService) HasCompletedToday(ctx context.Context, participantID, communityID string) (domain.CompletionRecord, bool, error) {
	date := s.days.ServiceDate(s.clock())
	return s.store.Read(ctx, completionKey(participantID, communityID, date))
}

// Record upserts the completion for the current service day. Repeated
// calls within one day overwrite, never duplicate. The session engine
// prevents concurrent duplicates by construction; the upsert is defense.
func (s *CompletionService) Record(ctx context.Context, participantID, communityID string, score, tier int) (domain.CompletionRecord, error) {
	now := s.clock()
	rec := domain.CompletionRecord{
		ParticipantID: participantID,
		CommunityID:   communityID,
		ServiceDate:   s.days.ServiceDate(now),
		Score:         score,
		Tier:          tier,
		CompletedAt:   now,
	}
	if err := s.store.Write(ctx, completionKey(participantID, communityID, rec.ServiceDate), rec, s.ttl); err != nil {
		return domain.CompletionRecord{}, err
	}
	return rec, nil
}
