package locking

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestAdvisoryLocker_AcquireTx_SortedOrder(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	locker := NewAdvisoryLocker(newTestLogger())

	// Keys passed out of order must still be locked in lexicographic order.
	first := "account:aaaa"
	second := "account:bbbb"

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(Token(first)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(Token(second)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	err = locker.AcquireTx(ctx, mock, second, first)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLocker_AcquireTx_DuplicateKeysLockedOnce(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	locker := NewAdvisoryLocker(newTestLogger())
	key := "account:aaaa"

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(Token(key)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	err = locker.AcquireTx(ctx, mock, key, key)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLocker_AcquireTx_Failure(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	locker := NewAdvisoryLocker(newTestLogger())
	expectedErr := errors.New("connection reset")

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(Token("account:aaaa")).
		WillReturnError(expectedErr)

	err = locker.AcquireTx(ctx, mock, "account:aaaa")
	assert.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopLocker_AcquireTx(t *testing.T) {
	locker := NewNoopLocker(newTestLogger())
	assert.NoError(t, locker.AcquireTx(context.Background(), nil, "account:aaaa", "account:bbbb"))
}

func TestNoopJobLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewNoopJobLocker()

	acquired, err := locker.TryAcquire(ctx, "recurring_transactions")
	assert.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, locker.Release(ctx, "recurring_transactions"))
}
