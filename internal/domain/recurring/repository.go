package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrScheduleNotFound is returned when a recurring schedule does not exist.
type ErrScheduleNotFound struct {
	ScheduleID uuid.UUID
}

func (e ErrScheduleNotFound) Error() string {
	return fmt.Sprintf("recurring schedule not found: %s", e.ScheduleID)
}

// Is matches any ErrScheduleNotFound when the target carries a nil UUID.
func (e ErrScheduleNotFound) Is(target error) bool {
	t, ok := target.(ErrScheduleNotFound)
	if !ok {
		return false
	}
	return t.ScheduleID == uuid.Nil || t.ScheduleID == e.ScheduleID
}

// Repository persists recurring transaction schedules.
type Repository interface {
	Create(ctx context.Context, schedule *Schedule) error

	// GetDue returns up to limit active schedules whose next run is at or
	// before asOf, oldest due first.
	GetDue(ctx context.Context, asOf time.Time, limit int) ([]*Schedule, error)

	// Reschedule advances a schedule's next run time after an occurrence was
	// executed (or found already executed by another worker).
	Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time) error

	WithTx(tx pgx.Tx) Repository
}
