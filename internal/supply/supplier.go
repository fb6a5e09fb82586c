package supply

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	activeCount  = 10
	reserveCount = 3

	easyQuota   = 2
	mediumQuota = 4
	hardQuota   = 4
)

// historyWindow bounds the durable avoid-set lookup; the redis recent set
// covers the shorter horizon on its own.
const historyWindow = 30 * 24 * time.Hour

// HistorySource is the durable half of the avoid-set.
type HistorySource interface {
	RecentTexts(ctx context.Context, participantID, communityID string, since time.Time) ([]string, error)
}

// RecentSource is the volatile half of the avoid-set.
type RecentSource interface {
	Members(ctx context.Context, participantID, communityID string) ([]string, error)
}

// Service assembles difficulty-balanced question sets from providers, the
// validator, and the fallback bank.
type Service struct {
	gateway   *Gateway
	validator *Validator
	bank      []domain.Question
	history   HistorySource // optional
	recent    RecentSource  // optional
	clock     func() time.Time

	// politeDelay spaces out batch prepares to respect provider rate
	// limits.
	politeDelay time.Duration

	sf  singleflight.Group
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(gateway *Gateway, validator *Validator, bank []domain.Question, history HistorySource, recent RecentSource, politeDelay time.Duration) *Service {
	return &Service{
		gateway:     gateway,
		validator:   validator,
		bank:        bank,
		history:     history,
		recent:      recent,
		clock:       time.Now,
		politeDelay: politeDelay,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Prepare assembles a question set for the participant. Concurrent calls
// for the same key (the eager warm-up racing the confirmed start) share a
// single fetch.
func (s *Service) Prepare(ctx context.Context, participantID, communityID string) (domain.QuestionSet, error) {
	key := domain.SessionKey(participantID, communityID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.prepare(ctx, participantID, communityID)
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (s *Service) prepare(ctx context.Context, participantID, communityID string) (domain.QuestionSet, error) {
	avoid := s.avoidSet(ctx, participantID, communityID)

	candidates := s.gateway.FetchAll(ctx)
	buckets := map[domain.Difficulty][]domain.Question{}
	seen := map[string]struct{}{}

	admit := func(q domain.Question) {
		norm := domain.NormalizeQuestion(q.Text)
		if _, dup := seen[norm]; dup {
			return
		}
		if !s.validator.Accept(q, avoid) {
			return
		}
		seen[norm] = struct{}{}
		buckets[q.Difficulty] = append(buckets[q.Difficulty], q)
	}
	for _, q := range candidates {
		admit(q)
	}
	for _, q := range s.bank {
		admit(q)
	}

	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		s.shuffle(buckets[d])
	}

	var active []domain.Question
	var leftover []domain.Question
	for _, alloc := range []struct {
		d     domain.Difficulty
		quota int
	}{
		{domain.DifficultyEasy, easyQuota},
		{domain.DifficultyMedium, mediumQuota},
		{domain.DifficultyHard, hardQuota},
	} {
		bucket := buckets[alloc.d]
		take := alloc.quota
		if len(bucket) < take {
			log.Printf("difficulty %s short: want %d, have %d", alloc.d, take, len(bucket))
			take = len(bucket)
		}
		active = append(active, bucket[:take]...)
		leftover = append(leftover, bucket[take:]...)
	}

	// Top up a short active sequence from whatever remains so a thin
	// bucket does not sink the whole attempt.
	s.shuffle(leftover)
	for len(active) < activeCount && len(leftover) > 0 {
		active = append(active, leftover[0])
		leftover = leftover[1:]
	}
	if len(active) < activeCount {
		return domain.QuestionSet{}, domain.ErrInsufficientContent
	}

	reserve := leftover
	if len(reserve) > reserveCount {
		reserve = reserve[:reserveCount]
	}
	return domain.QuestionSet{Active: active, Reserve: reserve}, nil
}

// avoidSet unions the durable history with the redis recent set. Either
// source failing narrows the avoid-set instead of failing the prepare.
func (s *Service) avoidSet(ctx context.Context, participantID, communityID string) map[string]struct{} {
	avoid := map[string]struct{}{}
	if s.history != nil {
		texts, err := s.history.RecentTexts(ctx, participantID, communityID, s.clock().Add(-historyWindow))
		if err != nil {
			log.Printf("history lookup failed for %s: %v", domain.SessionKey(participantID, communityID), err)
		}
		for _, t := range texts {
			avoid[domain.NormalizeQuestion(t)] = struct{}{}
		}
	}
	if s.recent != nil {
		members, err := s.recent.Members(ctx, participantID, communityID)
		if err != nil {
			log.Printf("recent-set lookup failed for %s: %v", domain.SessionKey(participantID, communityID), err)
		}
		for _, m := range members {
			avoid[domain.NormalizeQuestion(m)] = struct{}{}
		}
	}
	return avoid
}

func (s *Service) shuffle(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

// WarmBatch prepares sets for several keys with a small delay between
// fetches. Politeness toward the providers, not a correctness concern.
func (s *Service) WarmBatch(ctx context.Context, keys [][2]string, sink func(participantID, communityID string, set domain.QuestionSet)) {
	for i, key := range keys {
		if i > 0 && s.politeDelay > 0 {
			select {
			case <-time.After(s.politeDelay):
			case <-ctx.Done():
				return
			}
		}
		set, err := s.Prepare(ctx, key[0], key[1])
		if err != nil {
			log.Printf("warm prepare failed for %s: %v", domain.SessionKey(key[0], key[1]), err)
			continue
		}
		if sink != nil {
			sink(key[0], key[1], set)
		}
	}
}
