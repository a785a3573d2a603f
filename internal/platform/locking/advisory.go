package locking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintrack/ledger-core/internal/platform/persistence"
)

// Locker acquires transaction-scoped exclusive locks on logical string keys.
// Implementations must acquire multiple keys in a deterministic global order.
type Locker interface {
	// AcquireTx takes an exclusive lock on every key within the given
	// transaction. The locks are released when the transaction ends, on both
	// commit and rollback. Acquisition blocks while a concurrent holder keeps
	// any of the locks.
	AcquireTx(ctx context.Context, q persistence.Querier, keys ...string) error
}

// AdvisoryLocker implements Locker on pg_advisory_xact_lock.
type AdvisoryLocker struct {
	logger *slog.Logger
}

func NewAdvisoryLocker(logger *slog.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{logger: logger}
}

// AcquireTx locks the keys in sorted, deduplicated order.
func (l *AdvisoryLocker) AcquireTx(ctx context.Context, q persistence.Querier, keys ...string) error {
	for _, key := range sortKeys(keys) {
		token := Token(key)
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, token); err != nil {
			l.logger.Error("Failed to acquire advisory lock", "key", key, "token", token, "error", err)
			return fmt.Errorf("failed to acquire advisory lock for %q: %w", key, err)
		}
		l.logger.Debug("Acquired advisory lock", "key", key, "token", token)
	}
	return nil
}

// NoopLocker implements Locker as a no-op for backends without advisory lock
// support. Correctness then relies solely on optimistic versioning; callers
// must not assume true mutual exclusion in this mode.
type NoopLocker struct {
	logger *slog.Logger
}

func NewNoopLocker(logger *slog.Logger) *NoopLocker {
	return &NoopLocker{logger: logger}
}

func (l *NoopLocker) AcquireTx(ctx context.Context, q persistence.Querier, keys ...string) error {
	l.logger.Debug("Advisory locking unavailable, skipping", "keys", keys)
	return nil
}

// SelectLocker probes the backing store once at startup and returns the
// matching strategy; call sites never branch on capability themselves.
func SelectLocker(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) Locker {
	if supportsAdvisoryLocks(ctx, pool, "pg_advisory_xact_lock") {
		return NewAdvisoryLocker(logger)
	}
	logger.Warn("Backend has no advisory lock support, falling back to no-op locking")
	return NewNoopLocker(logger)
}

func supportsAdvisoryLocks(ctx context.Context, pool *pgxpool.Pool, proc string) bool {
	var supported bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`, proc,
	).Scan(&supported)
	return err == nil && supported
}
