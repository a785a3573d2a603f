// Package idempotency deduplicates externally-retried write operations by a
// client-supplied key, guaranteeing at most one effective execution per
// (user, key, endpoint) tuple.
package idempotency

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of an idempotency record. A record transitions
// in_progress to completed or failed exactly once; failed and expired records
// are treated as absent so a legitimate retry can run.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is one reserved idempotency key. The (UserID, Key, Endpoint) tuple
// is unique; a completed record stores the original response for byte-exact
// replay.
type Record struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Key            string    `json:"key"`
	Endpoint       string    `json:"endpoint"`
	RequestHash    string    `json:"request_hash"`
	Status         Status    `json:"status"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   []byte    `json:"response_body"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the record's reservation has lapsed.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Abandoned reports whether an in_progress record is older than the stale
// window, meaning its owning request likely crashed without resolving it.
func (r *Record) Abandoned(now time.Time, staleAfter time.Duration) bool {
	return r.Status == StatusInProgress && now.Sub(r.CreatedAt) > staleAfter
}

// Outcome is the result of presenting an idempotency key.
type Outcome int

const (
	// OutcomeFresh means the key was reserved and the caller owns the
	// execution.
	OutcomeFresh Outcome = iota
	// OutcomeReplay means an identical request already completed; the stored
	// response is returned without re-executing side effects.
	OutcomeReplay
	// OutcomeConflict means the key is owned by a concurrent in-flight
	// request, or was reused with a different request body.
	OutcomeConflict
)

// BeginResult carries the outcome of Begin plus, for replays, the stored
// response.
type BeginResult struct {
	Outcome        Outcome
	ResponseStatus int
	ResponseBody   []byte
}

// ErrConflict is surfaced to the external caller as a client error; it is
// never retried internally.
type ErrConflict struct {
	Key string
}

func (e ErrConflict) Error() string {
	return "conflicting idempotent request for key: " + e.Key
}

// Is matches any ErrConflict, or one with the same key when the target names
// one.
func (e ErrConflict) Is(target error) bool {
	t, ok := target.(ErrConflict)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}

// ErrRecordNotFound indicates a missing idempotency record.
type ErrRecordNotFound struct {
	Key string
}

func (e ErrRecordNotFound) Error() string {
	return "idempotency record not found for key: " + e.Key
}

// Is matches any ErrRecordNotFound, or one with the same key when the target
// names one.
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}
