// Package postgres provides PostgreSQL implementations of the domain
// repositories. Monetary amounts are persisted as BIGINT minor units so no
// value ever passes through binary floating point.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/ledger"
	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
)

// LedgerRepository implements ledger.Repository for PostgreSQL. The struct
// only issues INSERT and SELECT statements: the ledger table has no update or
// delete path in application code.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository backed by
// the connection pool.
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so appends participate in
// the caller's atomic workflow.
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts a validated entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, user_id, account_id, transaction_id, amount, entry_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.AccountID,
		entry.TransactionID,
		entry.Amount.MinorUnits(),
		entry.Type,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append ledger entry", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// SumByAccount computes the signed sum of all entries. COALESCE makes an
// account without entries sum to exactly zero.
func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM ledger_entries
		WHERE account_id = $1
	`

	var sum int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum ledger entries", "account_id", accountID.String(), "error", err)
		return money.Zero(), fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return money.FromMinorUnits(sum), nil
}

// ListByAccount returns up to limit entries for the account, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, user_id, account_id, transaction_id, amount, entry_type, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit)
	if err != nil {
		r.logger.Error("Failed to list ledger entries for account", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByTransaction returns both legs of a transfer or a reversal pair in
// creation order.
func (r *LedgerRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error) {
	query := `
		SELECT id, user_id, account_id, transaction_id, amount, entry_type, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		r.logger.Error("Failed to list ledger entries for transaction", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	for rows.Next() {
		var (
			entry      ledger.Entry
			minorUnits int64
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.AccountID,
			&entry.TransactionID,
			&minorUnits,
			&entry.Type,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.Amount = money.FromMinorUnits(minorUnits)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}
