// Package ledger defines the append-only double-entry ledger that is the
// source of truth for account balances. Entries are written once and never
// updated or deleted; corrections are new entries with the opposite sign
// referencing the same transaction.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/ledger-core/internal/domain/money"
)

// EntryType classifies the direction of a ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryTypeCredit || t == EntryTypeDebit
}

// Opposite returns the reversing entry type.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeCredit {
		return EntryTypeDebit
	}
	return EntryTypeCredit
}

// Entry is an immutable signed movement on one account. A credit entry always
// carries a positive amount, a debit entry always a negative one.
type Entry struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	AccountID     uuid.UUID     `json:"account_id"`
	TransactionID uuid.NullUUID `json:"transaction_id"`
	Amount        money.Amount  `json:"amount"`
	Type          EntryType     `json:"entry_type"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ErrInvalidEntry indicates a sign/type mismatch or unknown entry type. It is
// a caller bug and must never be retried.
type ErrInvalidEntry struct {
	Type   EntryType
	Amount money.Amount
}

func (e ErrInvalidEntry) Error() string {
	return fmt.Sprintf("invalid ledger entry: type %q with amount %s", e.Type, e.Amount)
}

// Is matches any ErrInvalidEntry so callers can test with errors.Is.
func (e ErrInvalidEntry) Is(target error) bool {
	_, ok := target.(ErrInvalidEntry)
	return ok
}

// ErrTransactionNotFound indicates that no ledger entries exist for a
// transaction id.
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "no ledger entries for transaction: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound, or one with the same transaction id
// when the target carries a non-nil id.
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// NewEntry validates the sign/type invariant and builds a new entry. The
// amount must be strictly positive for credits and strictly negative for
// debits.
func NewEntry(userID, accountID uuid.UUID, amount money.Amount, entryType EntryType, transactionID uuid.NullUUID) (*Entry, error) {
	switch entryType {
	case EntryTypeCredit:
		if !amount.IsPositive() {
			return nil, ErrInvalidEntry{Type: entryType, Amount: amount}
		}
	case EntryTypeDebit:
		if !amount.IsNegative() {
			return nil, ErrInvalidEntry{Type: entryType, Amount: amount}
		}
	default:
		return nil, ErrInvalidEntry{Type: entryType, Amount: amount}
	}

	return &Entry{
		ID:            uuid.New(),
		UserID:        userID,
		AccountID:     accountID,
		TransactionID: transactionID,
		Amount:        amount,
		Type:          entryType,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Reversal builds the correcting entry for e: opposite type, negated amount,
// same transaction id, so both legs stay associated.
func (e *Entry) Reversal() (*Entry, error) {
	return NewEntry(e.UserID, e.AccountID, e.Amount.Neg(), e.Type.Opposite(), e.TransactionID)
}
