package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fintrack/ledger-core/internal/domain/money"
	"github.com/fintrack/ledger-core/internal/domain/recurring"
	"github.com/fintrack/ledger-core/internal/platform/persistence"
)

// RecurringRepository implements recurring.Repository for PostgreSQL.
type RecurringRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRecurringRepository creates a new PostgreSQL recurring schedule
// repository backed by the connection pool.
func NewRecurringRepository(logger *slog.Logger, db *persistence.PostgresDB) recurring.Repository {
	return &RecurringRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *RecurringRepository) WithTx(tx pgx.Tx) recurring.Repository {
	return &RecurringRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new recurring schedule.
func (r *RecurringRepository) Create(ctx context.Context, schedule *recurring.Schedule) error {
	query := `
		INSERT INTO recurring_transactions (id, user_id, account_id, amount, entry_type, description, interval_days, next_run_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		schedule.ID,
		schedule.UserID,
		schedule.AccountID,
		schedule.Amount.MinorUnits(),
		schedule.Type,
		schedule.Description,
		schedule.IntervalDays,
		schedule.NextRunAt,
		schedule.IsActive,
		schedule.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create recurring schedule", "schedule_id", schedule.ID.String(), "error", err)
		return fmt.Errorf("failed to create recurring schedule: %w", err)
	}

	return nil
}

// GetDue retrieves active schedules whose next run is at or before asOf,
// oldest first.
func (r *RecurringRepository) GetDue(ctx context.Context, asOf time.Time, limit int) ([]*recurring.Schedule, error) {
	query := `
		SELECT id, user_id, account_id, amount, entry_type, description, interval_days, next_run_at, is_active, created_at
		FROM recurring_transactions
		WHERE is_active = TRUE AND next_run_at <= $1
		ORDER BY next_run_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, asOf, limit)
	if err != nil {
		r.logger.Error("Failed to get due recurring schedules", "error", err)
		return nil, fmt.Errorf("failed to get due recurring schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*recurring.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over recurring schedules: %w", err)
	}

	return schedules, nil
}

// Reschedule moves a schedule's next run forward after an occurrence has
// been executed.
func (r *RecurringRepository) Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time) error {
	query := `
		UPDATE recurring_transactions
		SET next_run_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, nextRunAt, id)
	if err != nil {
		r.logger.Error("Failed to reschedule recurring schedule", "schedule_id", id.String(), "error", err)
		return fmt.Errorf("failed to reschedule recurring schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return recurring.ErrScheduleNotFound{ScheduleID: id}
	}

	return nil
}

func scanSchedule(rows pgx.Rows) (*recurring.Schedule, error) {
	var (
		schedule recurring.Schedule
		minor    int64
	)
	err := rows.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.AccountID,
		&minor,
		&schedule.Type,
		&schedule.Description,
		&schedule.IntervalDays,
		&schedule.NextRunAt,
		&schedule.IsActive,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recurring schedule: %w", err)
	}
	schedule.Amount = money.FromMinorUnits(minor)
	return &schedule, nil
}
