package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecentSet tracks the question texts a participant has seen lately as a
// Redis set (recent-question-set:{participant}:{community}). It is the
// fast half of the avoid-set; the durable history log is the slow half.
type RecentSet struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecentSet(client *redis.Client, ttl time.Duration) *RecentSet {
	return &RecentSet{client: client, ttl: ttl}
}

func (r *RecentSet) key(participantID, communityID string) string {
	return "recent-question-set:" + participantID + ":" + communityID
}

// Add appends normalized question texts to the participant's recent set and
// refreshes its TTL.
func (r *RecentSet) Add(ctx context.Context, participantID, communityID string, texts ...string) error {
	if len(texts) == 0 {
		return nil
	}
	key := r.key(participantID, communityID)
	members := make([]interface{}, len(texts))
	for i, t := range texts {
		members[i] = t
	}
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Members returns the participant's recent normalized question texts.
func (r *RecentSet) Members(ctx context.Context, participantID, communityID string) ([]string, error) {
	return r.client.SMembers(ctx, r.key(participantID, communityID)).Result()
}
