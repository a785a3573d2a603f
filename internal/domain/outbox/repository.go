package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository persists outbox events. Create runs inside the workflow's
// transaction so an event exists if and only if its ledger entries committed.
type Repository interface {
	Create(ctx context.Context, event *Event) error

	// GetPending returns up to limit pending events in FIFO order.
	GetPending(ctx context.Context, limit int) ([]*Event, error)

	UpdateStatus(ctx context.Context, id int64, status Status) error
	IncrementAttempts(ctx context.Context, id int64) error

	WithTx(tx pgx.Tx) Repository
}

// ErrEventNotFound indicates a missing outbox event.
type ErrEventNotFound struct {
	ID int64
}

func (e ErrEventNotFound) Error() string {
	return "outbox event not found"
}

// Is matches any ErrEventNotFound, or one with the same id when the target
// carries a non-zero id.
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
