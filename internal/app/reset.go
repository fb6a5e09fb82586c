package app

import (
	"context"
	"time"

	"daily-trivia-service/internal/domain"
)

// MarkerStore holds the daily reset markers (reset-marker:{date}).
type MarkerStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CompletionLister exposes the same-day completion snapshot.
type CompletionLister interface {
	ForDay(ctx context.Context, serviceDate string) ([]domain.CompletionRecord, error)
}

// ResetCoordinator is the boundary consumed by the external daily batch
// job that strips previously granted tier roles. The job asks for the
// day's completions and marks the day done so reruns are no-ops.
type ResetCoordinator struct {
	markers     MarkerStore
	completions CompletionLister
	days        domain.DayClock
	markerTTL   time.Duration
	clock       func() time.Time
}

func NewResetCoordinator(markers MarkerStore, completions CompletionLister, days domain.DayClock, markerTTL time.Duration) *ResetCoordinator {
	return &ResetCoordinator{
		markers:     markers,
		completions: completions,
		days:        days,
		markerTTL:   markerTTL,
		clock:       time.Now,
	}
}

func resetMarkerKey(serviceDate string) string {
	return "reset-marker:" + serviceDate
}

// AlreadyReset reports whether the given service day has been processed.
func (r *ResetCoordinator) AlreadyReset(ctx context.Context, serviceDate string) (bool, error) {
	_, ok, err := r.markers.Get(ctx, resetMarkerKey(serviceDate))
	return ok, err
}

// MarkReset records that the day's cleanup ran.
func (r *ResetCoordinator) MarkReset(ctx context.Context, serviceDate string) error {
	return r.markers.Set(ctx, resetMarkerKey(serviceDate), []byte("1"), r.markerTTL)
}

// CompletionsForDay returns the completions the cleanup job should act on.
func (r *ResetCoordinator) CompletionsForDay(ctx context.Context, serviceDate string) ([]domain.CompletionRecord, error) {
	return r.completions.ForDay(ctx, serviceDate)
}

// Today returns the current service date per the shared day clock.
func (r *ResetCoordinator) Today() string {
	return r.days.ServiceDate(r.clock())
}
