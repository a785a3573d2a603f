// Package outbox defines transactional ledger events: rows written in the
// same database transaction as the ledger entries they describe, published to
// downstream consumers by a background poller.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks an event's publishing lifecycle.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Event is one pending ledger event. Payload is the serialized event body as
// it will appear on the wire.
type Event struct {
	ID            int64      `json:"id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	AccountID     uuid.UUID  `json:"account_id"`
	Payload       []byte     `json:"payload"`
	Status        Status     `json:"status"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// NewEvent builds a pending event for the given transaction and account.
func NewEvent(transactionID, accountID uuid.UUID, payload []byte) *Event {
	return &Event{
		TransactionID: transactionID,
		AccountID:     accountID,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     time.Now().UTC(),
	}
}
