// Package account defines the mutable account aggregate whose balance is a
// cache derived from the ledger, guarded by optimistic row versioning.
package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/domain/money"
)

// Account carries the cached, derived balance for one user-owned account.
// Between synchronizations the cache may be stale; Version increments by
// exactly one on every successful balance write and serves as the optimistic
// fencing token. Accounts are soft-deleted, never removed.
type Account struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Balance   money.Amount `json:"balance"`
	Version   int64        `json:"version"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewAccount creates an active account with a zero cached balance at version
// zero.
func NewAccount(userID uuid.UUID) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   money.Zero(),
		Version:   0,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Deactivate soft-deletes the account.
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now().UTC()
}
