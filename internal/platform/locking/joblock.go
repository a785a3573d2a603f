package locking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobLocker gives scheduled background jobs cluster-wide mutual exclusion: a
// job runs at most once concurrently across all worker processes. The lock is
// scoped to the holder's session, not a transaction, so it survives the job's
// own internal transactions and must be released explicitly.
type JobLocker interface {
	// TryAcquire is non-blocking: it reports false when another holder owns
	// the lock.
	TryAcquire(ctx context.Context, jobName string) (bool, error)
	// Release frees the lock. It must run on every exit path of the job.
	Release(ctx context.Context, jobName string) error
}

// SessionJobLocker implements JobLocker on pg_try_advisory_lock, pinning one
// pooled connection per held lock so the session owning the lock stays alive
// for the whole job run.
type SessionJobLocker struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu   sync.Mutex
	held map[string]*pgxpool.Conn
}

func NewSessionJobLocker(pool *pgxpool.Pool, logger *slog.Logger) *SessionJobLocker {
	return &SessionJobLocker{
		pool:   pool,
		logger: logger,
		held:   make(map[string]*pgxpool.Conn),
	}
}

func (l *SessionJobLocker) TryAcquire(ctx context.Context, jobName string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[jobName]; ok {
		// This process already runs the job.
		return false, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection for job lock %q: %w", jobName, err)
	}

	token := Token(JobKey(jobName))
	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, token).Scan(&acquired); err != nil {
		conn.Release()
		return false, fmt.Errorf("failed to try job lock %q: %w", jobName, err)
	}
	if !acquired {
		conn.Release()
		l.logger.Debug("Job lock held elsewhere", "job", jobName, "token", token)
		return false, nil
	}

	l.held[jobName] = conn
	l.logger.Debug("Acquired job lock", "job", jobName, "token", token)
	return true, nil
}

func (l *SessionJobLocker) Release(ctx context.Context, jobName string) error {
	l.mu.Lock()
	conn, ok := l.held[jobName]
	delete(l.held, jobName)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	defer conn.Release()

	token := Token(JobKey(jobName))
	var released bool
	if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, token).Scan(&released); err != nil {
		return fmt.Errorf("failed to release job lock %q: %w", jobName, err)
	}
	if !released {
		l.logger.Warn("Job lock was not held by this session on release", "job", jobName)
	}
	return nil
}

// NoopJobLocker always acquires. On a backend without session advisory locks
// multi-worker exclusion silently degrades to a single-instance assumption.
type NoopJobLocker struct{}

func NewNoopJobLocker() *NoopJobLocker { return &NoopJobLocker{} }

func (l *NoopJobLocker) TryAcquire(ctx context.Context, jobName string) (bool, error) {
	return true, nil
}

func (l *NoopJobLocker) Release(ctx context.Context, jobName string) error {
	return nil
}

// SelectJobLocker probes the backing store once at startup and returns the
// matching strategy.
func SelectJobLocker(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) JobLocker {
	if supportsAdvisoryLocks(ctx, pool, "pg_try_advisory_lock") {
		return NewSessionJobLocker(pool, logger)
	}
	logger.Warn("Backend has no session advisory lock support, job exclusion degrades to single-instance")
	return NewNoopJobLocker()
}
