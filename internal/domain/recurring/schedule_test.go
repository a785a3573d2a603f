package recurring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
)

func TestSchedule_OccurrenceKey(t *testing.T) {
	id := uuid.MustParse("2b7cbd1c-91f5-4be2-a6ab-6f48b31a4f13")
	s := &Schedule{
		ID:        id,
		NextRunAt: time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "recurring:2b7cbd1c-91f5-4be2-a6ab-6f48b31a4f13:2026-03-15", s.OccurrenceKey())

	// The key depends only on the due date, so every worker agrees on it.
	s.NextRunAt = time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "recurring:2b7cbd1c-91f5-4be2-a6ab-6f48b31a4f13:2026-03-15", s.OccurrenceKey())
}

func TestSchedule_NextOccurrence(t *testing.T) {
	s := &Schedule{
		UserID:       uuid.New(),
		AccountID:    uuid.New(),
		Amount:       money.FromMinorUnits(5000),
		Type:         ledger.EntryTypeDebit,
		IntervalDays: 7,
		NextRunAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), s.NextOccurrence(now))

	// Missed occurrences are skipped, not replayed in a burst.
	lateNow := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC), s.NextOccurrence(lateNow))
}
