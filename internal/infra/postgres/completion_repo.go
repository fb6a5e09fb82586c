package postgres

import (
	"context"
	"errors"
	"fmt"

	"daily-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CompletionRepo persists completion records, one per
// (participant, community, service date).
type CompletionRepo struct {
	pool *pgxpool.Pool
}

func NewCompletionRepo(pool *pgxpool.Pool) *CompletionRepo {
	return &CompletionRepo{pool: pool}
}

// Upsert writes the record, overwriting any earlier completion for the same
// key within the same service day. Last write wins.
func (r *CompletionRepo) Upsert(ctx context.Context, rec domain.CompletionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO completions (participant_id, community_id, service_date, score, tier, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (participant_id, community_id, service_date)
		DO UPDATE SET score = EXCLUDED.score, tier = EXCLUDED.tier, completed_at = EXCLUDED.completed_at`,
		rec.ParticipantID, rec.CommunityID, rec.ServiceDate, rec.Score, rec.Tier, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

// Get returns the completion for the key, if any.
func (r *CompletionRepo) Get(ctx context.Context, participantID, communityID, serviceDate string) (domain.CompletionRecord, bool, error) {
	rec := domain.CompletionRecord{
		ParticipantID: participantID,
		CommunityID:   communityID,
		ServiceDate:   serviceDate,
	}
	err := r.pool.QueryRow(ctx, `
		SELECT score, tier, completed_at FROM completions
		WHERE participant_id = $1 AND community_id = $2 AND service_date = $3`,
		participantID, communityID, serviceDate).
		Scan(&rec.Score, &rec.Tier, &rec.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompletionRecord{}, false, nil
	}
	if err != nil {
		return domain.CompletionRecord{}, false, fmt.Errorf("get completion: %w", err)
	}
	return rec, true, nil
}

// ForDay lists all completions for one service day. The external daily
// reset job consumes this to know which tier roles to strip.
func (r *CompletionRepo) ForDay(ctx context.Context, serviceDate string) ([]domain.CompletionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT participant_id, community_id, service_date, score, tier, completed_at
		FROM completions WHERE service_date = $1
		ORDER BY completed_at`, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var records []domain.CompletionRecord
	for rows.Next() {
		var rec domain.CompletionRecord
		if err := rows.Scan(&rec.ParticipantID, &rec.CommunityID, &rec.ServiceDate,
			&rec.Score, &rec.Tier, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CompletionAdapter exposes the repo through the dual-tier durable
// contract, translating the namespace key "participant:community:date".
type CompletionAdapter struct {
	repo *CompletionRepo
}

func NewCompletionAdapter(repo *CompletionRepo) *CompletionAdapter {
	return &CompletionAdapter{repo: repo}
}

func (a *CompletionAdapter) Read(ctx context.Context, key string) (domain.CompletionRecord, bool, error) {
	participantID, communityID, serviceDate, err := splitCompletionKey(key)
	if err != nil {
		return domain.CompletionRecord{}, false, err
	}
	return a.repo.Get(ctx, participantID, communityID, serviceDate)
}

func (a *CompletionAdapter) Write(ctx context.Context, _ string, value domain.CompletionRecord) error {
	return a.repo.Upsert(ctx, value)
}

func (a *CompletionAdapter) Delete(ctx context.Context, key string) error {
	participantID, communityID, serviceDate, err := splitCompletionKey(key)
	if err != nil {
		return err
	}
	_, err = a.repo.pool.Exec(ctx, `
		DELETE FROM completions
		WHERE participant_id = $1 AND community_id = $2 AND service_date = $3`,
		participantID, communityID, serviceDate)
	return err
}

func splitCompletionKey(key string) (participantID, communityID, serviceDate string, err error) {
	first := -1
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			first = i
			break
		}
	}
	last := -1
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			last = i
			break
		}
	}
	if first < 0 || last <= first {
		return "", "", "", fmt.Errorf("malformed completion key %q", key)
	}
	return key[:first], key[first+1 : last], key[last+1:], nil
}
