// Package recurring defines scheduled transactions that a background job
// executes on their due dates through the same write path as interactive
// requests.
package recurring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
)

// Schedule is one recurring transaction definition. Amount is the positive
// magnitude; Type decides the sign of the resulting ledger entry.
type Schedule struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	AccountID    uuid.UUID        `json:"account_id"`
	Amount       money.Amount     `json:"amount"`
	Type         ledger.EntryType `json:"entry_type"`
	Description  string           `json:"description"`
	IntervalDays int              `json:"interval_days"`
	NextRunAt    time.Time        `json:"next_run_at"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
}

// OccurrenceKey derives the idempotency key for the current due date. Any
// worker executing the same occurrence produces the same key, so the
// idempotency gate guarantees at most one effective execution per occurrence.
func (s *Schedule) OccurrenceKey() string {
	return fmt.Sprintf("recurring:%s:%s", s.ID, s.NextRunAt.UTC().Format("2006-01-02"))
}

// NextOccurrence returns the first scheduled time strictly after now,
// stepping by the schedule interval. Missed occurrences are skipped rather
// than executed late in a burst.
func (s *Schedule) NextOccurrence(now time.Time) time.Time {
	next := s.NextRunAt
	step := time.Duration(s.IntervalDays) * 24 * time.Hour
	for !next.After(now) {
		next = next.Add(step)
	}
	return next
}
