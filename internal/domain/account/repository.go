package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/money"
)

// Repository persists accounts. Balance writes go exclusively through
// SetBalance so every successful write bumps the version by one.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)

	// SetBalance conditionally writes the recomputed balance: the update only
	// applies when the stored version still equals the given one, and bumps
	// it by exactly one. A lost race returns ErrConcurrentModification.
	SetBalance(ctx context.Context, id uuid.UUID, balance money.Amount, version int64) error

	// Deactivate soft-deletes the account; rows are never physically removed.
	Deactivate(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates an optimistic lock failure: another
// synchronization committed between the balance read and the write-back.
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// Is matches any ErrConcurrentModification, or one for the same account when
// the target names one.
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrAccountNotFound indicates a missing account.
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound, or one for the same account when the
// target names one.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}
