package jobs

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/ledger-core/internal/config"
	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/domain/recurring"
	"github.com/fintrack/ledger-core/internal/service"
)

func newRecurringJob(t *testing.T, schedules *MockRecurringRepository, transactions *MockTransactionService) *RecurringTransactionsJob {
	t.Helper()
	cfg := &config.JobsConfig{WorkerPoolSize: 2, RecurringBatchSize: 10}
	job, err := NewRecurringTransactionsJob(newTestLogger(), cfg, schedules, transactions)
	require.NoError(t, err)
	t.Cleanup(job.Shutdown)
	return job
}

func dueSchedule(entryType ledger.EntryType) *recurring.Schedule {
	return &recurring.Schedule{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		AccountID:    uuid.New(),
		Amount:       money.FromMinorUnits(1500),
		Type:         entryType,
		Description:  "monthly subscription",
		IntervalDays: 30,
		NextRunAt:    time.Now().UTC().Add(-time.Hour),
		IsActive:     true,
	}
}

func TestRecurringTransactionsJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("executes a due debit with the occurrence key and reschedules", func(t *testing.T) {
		schedules := new(MockRecurringRepository)
		transactions := new(MockTransactionService)
		job := newRecurringJob(t, schedules, transactions)

		schedule := dueSchedule(ledger.EntryTypeDebit)

		schedules.On("GetDue", ctx, mock.Anything, 10).Return([]*recurring.Schedule{schedule}, nil)
		transactions.On("Create", mock.Anything, mock.MatchedBy(func(p service.CreateParams) bool {
			return p.UserID == schedule.UserID &&
				p.AccountID == schedule.AccountID &&
				p.Type == ledger.EntryTypeDebit &&
				p.Amount.Equal(money.FromMinorUnits(-1500)) &&
				p.IdempotencyKey == schedule.OccurrenceKey()
		})).Return(&service.WorkflowOutcome{Status: http.StatusCreated}, nil)
		schedules.On("Reschedule", mock.Anything, schedule.ID, mock.MatchedBy(func(next time.Time) bool {
			return next.After(time.Now().UTC())
		})).Return(nil)

		err := job.Run(ctx)
		require.NoError(t, err)
		transactions.AssertExpectations(t)
		schedules.AssertExpectations(t)
	})

	t.Run("credit schedules keep a positive amount", func(t *testing.T) {
		schedules := new(MockRecurringRepository)
		transactions := new(MockTransactionService)
		job := newRecurringJob(t, schedules, transactions)

		schedule := dueSchedule(ledger.EntryTypeCredit)

		schedules.On("GetDue", ctx, mock.Anything, 10).Return([]*recurring.Schedule{schedule}, nil)
		transactions.On("Create", mock.Anything, mock.MatchedBy(func(p service.CreateParams) bool {
			return p.Type == ledger.EntryTypeCredit && p.Amount.Equal(money.FromMinorUnits(1500))
		})).Return(&service.WorkflowOutcome{Status: http.StatusCreated}, nil)
		schedules.On("Reschedule", mock.Anything, schedule.ID, mock.Anything).Return(nil)

		err := job.Run(ctx)
		require.NoError(t, err)
		transactions.AssertExpectations(t)
	})

	t.Run("conflict means another worker owns the occurrence", func(t *testing.T) {
		schedules := new(MockRecurringRepository)
		transactions := new(MockTransactionService)
		job := newRecurringJob(t, schedules, transactions)

		schedule := dueSchedule(ledger.EntryTypeDebit)

		schedules.On("GetDue", ctx, mock.Anything, 10).Return([]*recurring.Schedule{schedule}, nil)
		transactions.On("Create", mock.Anything, mock.Anything).
			Return(nil, idempotency.ErrConflict{Key: schedule.OccurrenceKey()})
		schedules.On("Reschedule", mock.Anything, schedule.ID, mock.Anything).Return(nil)

		err := job.Run(ctx)
		require.NoError(t, err)
		schedules.AssertCalled(t, "Reschedule", mock.Anything, schedule.ID, mock.Anything)
	})

	t.Run("workflow failure leaves the schedule due for the next tick", func(t *testing.T) {
		schedules := new(MockRecurringRepository)
		transactions := new(MockTransactionService)
		job := newRecurringJob(t, schedules, transactions)

		schedule := dueSchedule(ledger.EntryTypeDebit)

		schedules.On("GetDue", ctx, mock.Anything, 10).Return([]*recurring.Schedule{schedule}, nil)
		transactions.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		err := job.Run(ctx)
		require.NoError(t, err)
		schedules.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fetch failure is returned", func(t *testing.T) {
		schedules := new(MockRecurringRepository)
		transactions := new(MockTransactionService)
		job := newRecurringJob(t, schedules, transactions)

		dbErr := errors.New("select failed")
		schedules.On("GetDue", ctx, mock.Anything, 10).Return(nil, dbErr)

		err := job.Run(ctx)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestIdempotencyReaperJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("reaps expired records", func(t *testing.T) {
		records := new(MockIdempotencyRepository)
		job := NewIdempotencyReaperJob(newTestLogger(), records)

		records.On("DeleteExpired", ctx).Return(int64(12), nil)

		err := job.Run(ctx)
		require.NoError(t, err)
		records.AssertExpectations(t)
	})

	t.Run("delete failure is returned", func(t *testing.T) {
		records := new(MockIdempotencyRepository)
		job := NewIdempotencyReaperJob(newTestLogger(), records)

		dbErr := errors.New("delete failed")
		records.On("DeleteExpired", ctx).Return(int64(0), dbErr)

		err := job.Run(ctx)
		assert.ErrorIs(t, err, dbErr)
	})
}
