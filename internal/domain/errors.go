package domain

import "errors"

var (
	// ErrInsufficientContent is returned when fewer than ten usable questions
	// can be assembled even after exhausting the fallback bank.
	ErrInsufficientContent = errors.New("not enough usable questions")
	// ErrAlreadyCompleted is returned when the participant has a completion
	// record for the current service day.
	ErrAlreadyCompleted = errors.New("already completed today")
	// ErrActiveSessionExists is returned when a start request races an
	// existing session for the same key.
	ErrActiveSessionExists = errors.New("session already in progress")
	// ErrSessionNotFound is returned when an action targets a key with no
	// live session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidTransition is returned when an action is submitted against a
	// session not in the expected stage. The session is left untouched.
	ErrInvalidTransition = errors.New("action not valid in current stage")
	// ErrStoreUnavailable indicates the durable store rejected an operation
	// that requires durability.
	ErrStoreUnavailable = errors.New("store unavailable")
)
