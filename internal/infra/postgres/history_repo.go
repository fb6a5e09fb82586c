package postgres

import (
	"context"
	"fmt"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// HistoryRepo appends to the asked-question log and serves avoid-set
// lookups. History is non-critical: callers absorb its write failures.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Append records the questions a participant was shown.
func (r *HistoryRepo) Append(ctx context.Context, entries ...domain.QuestionHistoryEntry) error {
	for _, e := range entries {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO question_history (participant_id, community_id, question_hash, question_text, asked_at)
			VALUES ($1, $2, $3, $4, $5)`,
			e.ParticipantID, e.CommunityID, e.QuestionHash, e.QuestionText, e.AskedAt)
		if err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

// RecentTexts returns the question texts asked to the participant since the
// cutoff. Texts are returned raw; callers normalize them for comparison.
func (r *HistoryRepo) RecentTexts(ctx context.Context, participantID, communityID string, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT question_text FROM question_history
		WHERE participant_id = $1 AND community_id = $2 AND asked_at >= $3`,
		participantID, communityID, since)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}
