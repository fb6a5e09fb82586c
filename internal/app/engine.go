package app

import (
	"context"
	"log"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
)

// SessionStore persists active sessions (dual-tier, volatile).
type SessionStore interface {
	Read(ctx context.Context, key string) (domain.QuizSession, bool, error)
	Write(ctx context.Context, key string, value domain.QuizSession, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SetCache holds pre-fetched question sets so a participant who hesitates
// before confirming still gets an instant start.
type SetCache interface {
	Read(ctx context.Context, key string) (domain.QuestionSet, bool, error)
	Write(ctx context.Context, key string, value domain.QuestionSet, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SetSource prepares fresh question sets.
type SetSource interface {
	Prepare(ctx context.Context, participantID, communityID string) (domain.QuestionSet, error)
}

// Claimer is the atomic compare-and-insert backing "at most one session
// per key". SetNX either claims the key or reports it taken.
type Claimer interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// HistoryRecorder appends to the durable asked-question log. Optional;
// failures are absorbed because history is non-critical.
type HistoryRecorder interface {
	Append(ctx context.Context, entries ...domain.QuestionHistoryEntry) error
}

// RecentRecorder feeds the volatile half of the avoid-set. Optional.
type RecentRecorder interface {
	Add(ctx context.Context, participantID, communityID string, texts ...string) error
}

// Config holds the engine's timing knobs.
type Config struct {
	QuestionTime     time.Duration // per-question countdown
	ContinuationTime time.Duration // response window after each answer
	RevealTime       time.Duration // dwell showing the correct answer
	TickInterval     time.Duration // countdown broadcast cadence
	SessionTTL       time.Duration // active-session cache TTL
	SetTTL           time.Duration // pre-fetched set cache TTL
}

// DefaultConfig mirrors the configured production timings.
func DefaultConfig() Config {
	return Config{
		QuestionTime:     30 * time.Second,
		ContinuationTime: 60 * time.Second,
		RevealTime:       4 * time.Second,
		TickInterval:     2 * time.Second,
		SessionTTL:       25 * time.Minute,
		SetTTL:           30 * time.Minute,
	}
}

// Event is pushed to session subscribers on every visible change.
type Event struct {
	Type      string             `json:"type"` // question, tick, reveal, continuation, completed, abandoned, timed_out
	Session   domain.QuizSession `json:"session"`
	Remaining int                `json:"remaining,omitempty"` // seconds until the stage deadline
}

// entry is the registry slot for one live session. Its mutex serializes
// every transition for the key; timers check gen under that mutex, so a
// timer armed for an earlier stage can never touch a mutated session.
type entry struct {
	mu          sync.Mutex
	sess        domain.QuizSession
	gen         uint64
	timer       *time.Timer
	tick        *time.Timer
	subscribers map[chan Event]struct{}
}

// Engine owns the per-participant quiz state machines.
type Engine struct {
	cfg         Config
	store       SessionStore
	sets        SetCache
	supplier    SetSource
	completions *CompletionService
	claims      Claimer
	history     HistoryRecorder
	recent      RecentRecorder
	clock       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewEngine(cfg Config, store SessionStore, sets SetCache, supplier SetSource, completions *CompletionService, claims Claimer, history HistoryRecorder, recent RecentRecorder) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 2 * time.Second
	}
	return &Engine{
		cfg:         cfg,
		store:       store,
		sets:        sets,
		supplier:    supplier,
		completions: completions,
		claims:      claims,
		history:     history,
		recent:      recent,
		clock:       time.Now,
		sessions:    make(map[string]*entry),
	}
}

func claimKey(key string) string {
	return "session-claim:" + key
}

// Warm eagerly prepares and caches a question set before the participant
// confirms, hiding provider latency. Best-effort.
func (e *Engine) Warm(ctx context.Context, participantID, communityID string) {
	key := domain.SessionKey(participantID, communityID)
	if _, ok, _ := e.sets.Read(ctx, key); ok {
		return
	}
	set, err := e.supplier.Prepare(ctx, participantID, communityID)
	if err != nil {
		log.Printf("warm prepare failed for %s: %v", key, err)
		return
	}
	if err := e.sets.Write(ctx, key, set, e.cfg.SetTTL); err != nil {
		log.Printf("set cache write failed for %s: %v", key, err)
	}
}

// Start creates the session for the key, or fails with ErrAlreadyCompleted
// or ErrActiveSessionExists. Creation is an atomic compare-and-insert
// against both the in-process registry and the claim store.
func (e *Engine) Start(ctx context.Context, participantID, communityID string) (domain.QuizSession, error) {
	if _, done, err := e.completions.HasCompletedToday(ctx, participantID, communityID); err != nil {
		return domain.QuizSession{}, err
	} else if done {
		return domain.QuizSession{}, domain.ErrAlreadyCompleted
	}

	key := domain.SessionKey(participantID, communityID)

	e.mu.Lock()
	if _, exists := e.sessions[key]; exists {
		e.mu.Unlock()
		return domain.QuizSession{}, domain.ErrActiveSessionExists
	}
	ent := &entry{subscribers: make(map[chan Event]struct{})}
	ent.mu.Lock() // hold until the session is fully built
	e.sessions[key] = ent
	e.mu.Unlock()
	defer ent.mu.Unlock()

	rollback := func() {
		e.mu.Lock()
		delete(e.sessions, key)
		e.mu.Unlock()
	}

	if e.claims != nil {
		ok, err := e.claims.SetNX(ctx, claimKey(key), []byte("1"), e.cfg.SessionTTL)
		if err != nil {
			log.Printf("claim store unavailable for %s: %v", key, err)
		} else if !ok {
			rollback()
			return domain.QuizSession{}, domain.ErrActiveSessionExists
		}
	}

	set, ok, err := e.sets.Read(ctx, key)
	if err != nil || !ok {
		set, err = e.supplier.Prepare(ctx, participantID, communityID)
		if err != nil {
			rollback()
			e.releaseClaim(ctx, key)
			return domain.QuizSession{}, err
		}
	}
	_ = e.sets.Delete(ctx, key)

	now := e.clock()
	ent.sess = domain.QuizSession{
		ParticipantID: participantID,
		CommunityID:   communityID,
		Set:           set,
		Stage:         domain.StageQuestion,
		StartedAt:     now,
		Deadline:      now.Add(e.cfg.QuestionTime),
	}
	e.persistLocked(ctx, ent)
	e.recordShownLocked(ctx, ent)
	e.armQuestionTimersLocked(key, ent)
	e.broadcastLocked(ent, "question")
	return ent.sess, nil
}

// Answer records the participant's selection for the current question.
func (e *Engine) Answer(ctx context.Context, participantID, communityID, selected string) (domain.QuizSession, error) {
	return e.resolveQuestion(ctx, participantID, communityID, selected)
}

// resolveQuestion handles both real answers and question timeouts (which
// arrive as the NoAnswer sentinel and score as incorrect).
func (e *Engine) resolveQuestion(ctx context.Context, participantID, communityID, selected string) (domain.QuizSession, error) {
	key := domain.SessionKey(participantID, communityID)
	ent, ok := e.lookup(key)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.sess.Stage != domain.StageQuestion {
		return ent.sess, domain.ErrInvalidTransition
	}
	return e.resolveQuestionLocked(ctx, key, ent, selected)
}

// resolveQuestionLocked scores the current question. The caller holds
// ent.mu and has already verified the stage (and, for timers, gen).
func (e *Engine) resolveQuestionLocked(ctx context.Context, key string, ent *entry, selected string) (domain.QuizSession, error) {
	e.cancelTimersLocked(ent)

	question := ent.sess.Current()
	correct := selected == question.Answer
	ent.sess.Answers = append(ent.sess.Answers, domain.Answer{
		Index:    ent.sess.Index,
		Selected: selected,
		Correct:  question.Answer,
		Right:    correct,
	})
	if correct {
		ent.sess.Score++
	}
	ent.sess.Index++

	if ent.sess.Index >= len(ent.sess.Set.Active) {
		return e.completeLocked(ctx, key, ent)
	}

	now := e.clock()
	if correct {
		// Correct answers skip the reveal pause.
		ent.sess.Stage = domain.StageContinuation
		ent.sess.RevealUntil = time.Time{}
		ent.sess.Deadline = now.Add(e.cfg.ContinuationTime)
		e.persistLocked(ctx, ent)
		e.armContinuationTimerLocked(key, ent)
		e.broadcastLocked(ent, "continuation")
		return ent.sess, nil
	}

	ent.sess.Stage = domain.StageReveal
	ent.sess.RevealUntil = now.Add(e.cfg.RevealTime)
	ent.sess.Deadline = ent.sess.RevealUntil.Add(e.cfg.ContinuationTime)
	e.persistLocked(ctx, ent)
	e.armRevealTimerLocked(key, ent)
	e.broadcastLocked(ent, "reveal")
	return ent.sess, nil
}

// Reroll swaps the current question for a reserve one without advancing.
// Rejected as a no-op when the allowance or the reserve is exhausted.
func (e *Engine) Reroll(ctx context.Context, participantID, communityID string) (domain.QuizSession, error) {
	key := domain.SessionKey(participantID, communityID)
	ent, ok := e.lookup(key)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.sess.Stage != domain.StageQuestion {
		return ent.sess, domain.ErrInvalidTransition
	}
	if ent.sess.RerollsUsed >= 3 || len(ent.sess.Set.Reserve) == 0 {
		log.Printf("reroll rejected for %s: used=%d reserve=%d", key, ent.sess.RerollsUsed, len(ent.sess.Set.Reserve))
		return ent.sess, domain.ErrInvalidTransition
	}
	e.cancelTimersLocked(ent)

	ent.sess.Set.Active[ent.sess.Index] = ent.sess.Set.Reserve[0]
	ent.sess.Set.Reserve = ent.sess.Set.Reserve[1:]
	ent.sess.RerollsUsed++
	ent.sess.Deadline = e.clock().Add(e.cfg.QuestionTime)

	e.persistLocked(ctx, ent)
	e.recordShownLocked(ctx, ent)
	e.armQuestionTimersLocked(key, ent)
	e.broadcastLocked(ent, "question")
	return ent.sess, nil
}

// Continue advances from the continuation prompt to the next question.
func (e *Engine) Continue(ctx context.Context, participantID, communityID string) (domain.QuizSession, error) {
	key := domain.SessionKey(participantID, communityID)
	ent, ok := e.lookup(key)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.sess.Stage != domain.StageContinuation {
		return ent.sess, domain.ErrInvalidTransition
	}
	e.cancelTimersLocked(ent)

	ent.sess.Stage = domain.StageQuestion
	ent.sess.RevealUntil = time.Time{}
	ent.sess.Deadline = e.clock().Add(e.cfg.QuestionTime)

	e.persistLocked(ctx, ent)
	e.recordShownLocked(ctx, ent)
	e.armQuestionTimersLocked(key, ent)
	e.broadcastLocked(ent, "question")
	return ent.sess, nil
}

// Abandon ends the session without completion credit.
func (e *Engine) Abandon(ctx context.Context, participantID, communityID string) (domain.QuizSession, error) {
	key := domain.SessionKey(participantID, communityID)
	ent, ok := e.lookup(key)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.sess.Stage.Terminal() {
		return ent.sess, domain.ErrInvalidTransition
	}
	return e.terminateLocked(ctx, key, ent, domain.StageAbandoned, "abandoned"), nil
}

// Get returns the live session for the key.
func (e *Engine) Get(ctx context.Context, participantID, communityID string) (domain.QuizSession, error) {
	key := domain.SessionKey(participantID, communityID)
	if ent, ok := e.lookup(key); ok {
		ent.mu.Lock()
		defer ent.mu.Unlock()
		return ent.sess, nil
	}
	sess, ok, err := e.store.Read(ctx, key)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Subscribe returns the session's event feed. Callers must invoke cancel.
func (e *Engine) Subscribe(participantID, communityID string) (<-chan Event, func(), error) {
	key := domain.SessionKey(participantID, communityID)
	ent, ok := e.lookup(key)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	ch := make(chan Event, 16)
	ent.mu.Lock()
	// The entry can be torn down between the registry lookup and here; a
	// channel registered on it would never be closed.
	if ent.sess.Stage.Terminal() {
		ent.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	ent.subscribers[ch] = struct{}{}
	ent.mu.Unlock()

	cancel := func() {
		ent.mu.Lock()
		if _, ok := ent.subscribers[ch]; ok {
			delete(ent.subscribers, ch)
			close(ch)
		}
		ent.mu.Unlock()
	}
	return ch, cancel, nil
}

func (e *Engine) lookup(key string) (*entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.sessions[key]
	return ent, ok
}

// completeLocked finishes the session and records the completion. A
// durable write failure propagates; the caller sees the finished session
// either way.
func (e *Engine) completeLocked(ctx context.Context, key string, ent *entry) (domain.QuizSession, error) {
	ent.sess.Stage = domain.StageCompleted
	ent.sess.RevealUntil = time.Time{}
	snapshot := e.teardownLocked(ctx, key, ent, "completed")
	if _, err := e.completions.Record(ctx, snapshot.ParticipantID, snapshot.CommunityID, snapshot.Score, snapshot.Score); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

func (e *Engine) terminateLocked(ctx context.Context, key string, ent *entry, stage domain.Stage, event string) domain.QuizSession {
	ent.sess.Stage = stage
	ent.sess.RevealUntil = time.Time{}
	return e.teardownLocked(ctx, key, ent, event)
}

// teardownLocked broadcasts the terminal event, closes subscribers, and
// removes every trace of the session.
func (e *Engine) teardownLocked(ctx context.Context, key string, ent *entry, event string) domain.QuizSession {
	e.cancelTimersLocked(ent)
	e.broadcastLocked(ent, event)
	for ch := range ent.subscribers {
		delete(ent.subscribers, ch)
		close(ch)
	}

	if err := e.store.Delete(ctx, key); err != nil {
		log.Printf("session delete failed for %s: %v", key, err)
	}
	e.releaseClaim(ctx, key)

	e.mu.Lock()
	delete(e.sessions, key)
	e.mu.Unlock()
	return ent.sess
}

func (e *Engine) releaseClaim(ctx context.Context, key string) {
	if e.claims == nil {
		return
	}
	if err := e.claims.Del(ctx, claimKey(key)); err != nil {
		log.Printf("claim release failed for %s: %v", key, err)
	}
}

func (e *Engine) persistLocked(ctx context.Context, ent *entry) {
	if err := e.store.Write(ctx, ent.sess.Key(), ent.sess, e.cfg.SessionTTL); err != nil {
		log.Printf("session persist failed for %s: %v", ent.sess.Key(), err)
	}
}

// recordShownLocked logs the currently displayed question into history and
// the recent set. Both halves are best-effort.
func (e *Engine) recordShownLocked(ctx context.Context, ent *entry) {
	question := ent.sess.Current()
	if e.history != nil {
		err := e.history.Append(ctx, domain.QuestionHistoryEntry{
			ParticipantID: ent.sess.ParticipantID,
			CommunityID:   ent.sess.CommunityID,
			QuestionHash:  domain.QuestionHash(question.Text),
			QuestionText:  question.Text,
			AskedAt:       e.clock(),
		})
		if err != nil {
			log.Printf("history append failed for %s: %v", ent.sess.Key(), err)
		}
	}
	if e.recent != nil {
		if err := e.recent.Add(ctx, ent.sess.ParticipantID, ent.sess.CommunityID, domain.NormalizeQuestion(question.Text)); err != nil {
			log.Printf("recent-set add failed for %s: %v", ent.sess.Key(), err)
		}
	}
}

// cancelTimersLocked invalidates every outstanding timer for the entry.
// Bumping gen is the real cancellation: a timer that already fired and is
// waiting on the mutex will see the new gen and do nothing.
func (e *Engine) cancelTimersLocked(ent *entry) {
	ent.gen++
	if ent.timer != nil {
		ent.timer.Stop()
		ent.timer = nil
	}
	if ent.tick != nil {
		ent.tick.Stop()
		ent.tick = nil
	}
}

func (e *Engine) armQuestionTimersLocked(key string, ent *entry) {
	gen := ent.gen
	deadline := ent.sess.Deadline
	ent.timer = time.AfterFunc(time.Until(deadline), func() {
		e.expireQuestion(key, gen)
	})
	e.armTickLocked(key, ent, gen)
}

func (e *Engine) armContinuationTimerLocked(key string, ent *entry) {
	gen := ent.gen
	ent.timer = time.AfterFunc(time.Until(ent.sess.Deadline), func() {
		e.expireContinuation(key, gen)
	})
	e.armTickLocked(key, ent, gen)
}

func (e *Engine) armRevealTimerLocked(key string, ent *entry) {
	gen := ent.gen
	ent.timer = time.AfterFunc(time.Until(ent.sess.RevealUntil), func() {
		e.finishReveal(key, gen)
	})
}

func (e *Engine) armTickLocked(key string, ent *entry, gen uint64) {
	ent.tick = time.AfterFunc(e.cfg.TickInterval, func() {
		e.tick(key, gen)
	})
}

// tick broadcasts the remaining seconds and reschedules itself while the
// stage it belongs to is still current.
func (e *Engine) tick(key string, gen uint64) {
	ent, ok := e.lookup(key)
	if !ok {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.gen != gen {
		return
	}
	remaining := int(time.Until(ent.sess.Deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	e.broadcastRemainingLocked(ent, "tick", remaining)
	if remaining > 0 {
		e.armTickLocked(key, ent, gen)
	}
}

// expireQuestion treats a missed question deadline as a wrong answer with
// the no-answer sentinel.
func (e *Engine) expireQuestion(key string, gen uint64) {
	ent, ok := e.lookup(key)
	if !ok {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	// The gen check and the resolve share the mutex: a transition that beat
	// this timer to the lock bumped gen, and the timer does nothing at all.
	if ent.gen != gen || ent.sess.Stage != domain.StageQuestion {
		return
	}
	if _, err := e.resolveQuestionLocked(context.Background(), key, ent, domain.NoAnswer); err != nil {
		log.Printf("question timeout handling failed for %s: %v", key, err)
	}
}

// finishReveal moves the session from the reveal dwell into continuation.
func (e *Engine) finishReveal(key string, gen uint64) {
	ent, ok := e.lookup(key)
	if !ok {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.gen != gen || ent.sess.Stage != domain.StageReveal {
		return
	}
	e.cancelTimersLocked(ent)
	ent.sess.Stage = domain.StageContinuation
	ent.sess.RevealUntil = time.Time{}
	e.persistLocked(context.Background(), ent)
	e.armContinuationTimerLocked(key, ent)
	e.broadcastLocked(ent, "continuation")
}

// expireContinuation discards a session whose continuation prompt expired.
func (e *Engine) expireContinuation(key string, gen uint64) {
	ent, ok := e.lookup(key)
	if !ok {
		return
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if ent.gen != gen || ent.sess.Stage != domain.StageContinuation {
		return
	}
	e.terminateLocked(context.Background(), key, ent, domain.StageTimedOut, "timed_out")
}

func (e *Engine) broadcastLocked(ent *entry, event string) {
	remaining := int(time.Until(ent.sess.Deadline).Seconds())
	if remaining < 0 || ent.sess.Stage.Terminal() {
		remaining = 0
	}
	e.broadcastRemainingLocked(ent, event, remaining)
}

func (e *Engine) broadcastRemainingLocked(ent *entry, event string, remaining int) {
	ev := Event{Type: event, Session: ent.sess, Remaining: remaining}
	for ch := range ent.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event rather than block a transition
			// on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
