package domain

import "time"

// Difficulty classifies a question for progression ordering.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single multiple-choice trivia question. Immutable once it
// leaves the supply pipeline.
type Question struct {
	Text       string     `json:"text"`
	Answer     string     `json:"answer"`
	Options    []string   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
	Source     string     `json:"source"`
}

// QuestionSet is the prepared content for one session attempt: ten active
// questions in fixed difficulty order plus up to three reroll reserves.
type QuestionSet struct {
	Active  []Question `json:"active"`
	Reserve []Question `json:"reserve"`
}

// Stage enumerates the session state machine.
type Stage string

const (
	StageQuestion     Stage = "question"
	StageReveal       Stage = "reveal"
	StageContinuation Stage = "continuation"
	StageCompleted    Stage = "completed"
	StageAbandoned    Stage = "abandoned"
	StageTimedOut     Stage = "timed_out"
)

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageAbandoned || s == StageTimedOut
}

// NoAnswer is the recorded selection when a question deadline expires
// without a response.
const NoAnswer = "(no answer)"

// Answer records the outcome of one asked question. Append-only.
type Answer struct {
	Index    int    `json:"index"`
	Selected string `json:"selected"`
	Correct  string `json:"correct"`
	Right    bool   `json:"right"`
}

// QuizSession is the per-participant state machine snapshot. At most one
// session per (participant, community) key at a time.
type QuizSession struct {
	ParticipantID string      `json:"participantId"`
	CommunityID   string      `json:"communityId"`
	Set           QuestionSet `json:"set"`
	Index         int         `json:"index"`
	Score         int         `json:"score"`
	Answers       []Answer    `json:"answers"`
	Stage         Stage       `json:"stage"`
	StartedAt     time.Time   `json:"startedAt"`
	Deadline      time.Time   `json:"deadline"`
	RevealUntil   time.Time   `json:"revealUntil,omitempty"`
	RerollsUsed   int         `json:"rerollsUsed"`
}

// Key returns the registry key for the session.
func (s *QuizSession) Key() string {
	return SessionKey(s.ParticipantID, s.CommunityID)
}

// Current returns the question at the session's index.
func (s *QuizSession) Current() Question {
	return s.Set.Active[s.Index]
}

// SessionKey builds the canonical (participant, community) key shared by the
// session registry, the session store, and the question-set cache.
func SessionKey(participantID, communityID string) string {
	return participantID + ":" + communityID
}

// CompletionRecord marks one finished session per participant per service
// day. Tier equals the score and is consumed by the external reward layer.
type CompletionRecord struct {
	ParticipantID string    `json:"participantId"`
	CommunityID   string    `json:"communityId"`
	ServiceDate   string    `json:"serviceDate"`
	Score         int       `json:"score"`
	Tier          int       `json:"tier"`
	CompletedAt   time.Time `json:"completedAt"`
}

// QuestionHistoryEntry is one row of the append-only asked-question log.
// Retained longer than completion records; feeds the avoid-set.
type QuestionHistoryEntry struct {
	ParticipantID string    `json:"participantId"`
	CommunityID   string    `json:"communityId"`
	QuestionHash  string    `json:"questionHash"`
	QuestionText  string    `json:"questionText"`
	AskedAt       time.Time `json:"askedAt"`
}
