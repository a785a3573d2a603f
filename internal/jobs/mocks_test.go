package jobs

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/fintrack/ledger-core/internal/domain/idempotency"
	"github.com/fintrack/ledger-core/internal/domain/outbox"
	"github.com/fintrack/ledger-core/internal/domain/recurring"
	"github.com/fintrack/ledger-core/internal/service"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, event *outbox.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) TryStart(ctx context.Context, rec *idempotency.Record, staleAfter time.Duration) (bool, error) {
	args := m.Called(ctx, rec, staleAfter)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, userID uuid.UUID, key, endpoint string) (*idempotency.Record, error) {
	args := m.Called(ctx, userID, key, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyRepository) MarkCompleted(ctx context.Context, userID uuid.UUID, key, endpoint string, responseStatus int, responseBody []byte) error {
	args := m.Called(ctx, userID, key, endpoint, responseStatus, responseBody)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) MarkFailed(ctx context.Context, userID uuid.UUID, key, endpoint string) error {
	args := m.Called(ctx, userID, key, endpoint)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return m
}

type MockRecurringRepository struct {
	mock.Mock
}

func (m *MockRecurringRepository) Create(ctx context.Context, schedule *recurring.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockRecurringRepository) GetDue(ctx context.Context, asOf time.Time, limit int) ([]*recurring.Schedule, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recurring.Schedule), args.Error(1)
}

func (m *MockRecurringRepository) Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time) error {
	args := m.Called(ctx, id, nextRunAt)
	return args.Error(0)
}

func (m *MockRecurringRepository) WithTx(tx pgx.Tx) recurring.Repository {
	return m
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Create(ctx context.Context, params service.CreateParams) (*service.WorkflowOutcome, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WorkflowOutcome), args.Error(1)
}

func (m *MockTransactionService) Transfer(ctx context.Context, params service.TransferParams) (*service.WorkflowOutcome, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WorkflowOutcome), args.Error(1)
}

func (m *MockTransactionService) Reverse(ctx context.Context, params service.ReverseParams) (*service.WorkflowOutcome, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WorkflowOutcome), args.Error(1)
}

type MockJobLocker struct {
	mock.Mock
}

func (m *MockJobLocker) TryAcquire(ctx context.Context, jobName string) (bool, error) {
	args := m.Called(ctx, jobName)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobLocker) Release(ctx context.Context, jobName string) error {
	args := m.Called(ctx, jobName)
	return args.Error(0)
}
