package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/money"
)

// Repository persists ledger entries. The interface deliberately exposes no
// update or delete operation: append-only history is enforced here, not by
// convention in callers.
type Repository interface {
	// Append inserts a validated entry. Entries are independent rows, so no
	// locking is required for concurrent appends.
	Append(ctx context.Context, entry *Entry) error

	// SumByAccount computes the exact signed sum over all entries of the
	// account. An account with no entries sums to zero.
	SumByAccount(ctx context.Context, accountID uuid.UUID) (money.Amount, error)

	// ListByAccount returns up to limit entries for the account, newest
	// first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Entry, error)

	// ListByTransaction returns all entries sharing a transaction id in
	// creation order, e.g. both legs of a transfer or a reversal pair.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*Entry, error)

	WithTx(tx pgx.Tx) Repository
}
