package producers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	callArgs := make([]interface{}, 0, len(msgs)+1)
	callArgs = append(callArgs, ctx)
	for _, msg := range msgs {
		callArgs = append(callArgs, msg)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newProducerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLedgerEventProducer_Publish(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"event_type":"transaction_created"}`)

	t.Run("success", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &LedgerEventProducer{logger: newProducerLogger(), writer: writer, topic: "ledger.events"}

		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msg kafka.Message) bool {
			return string(msg.Key) == "tx-1" && string(msg.Value) == string(payload)
		})).Return(nil)

		err := producer.Publish(ctx, "tx-1", payload)
		assert.NoError(t, err)
		writer.AssertExpectations(t)
	})

	t.Run("write failure", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := &LedgerEventProducer{logger: newProducerLogger(), writer: writer, topic: "ledger.events"}

		writeErr := errors.New("broker unavailable")
		writer.On("WriteMessages", ctx, mock.Anything).Return(writeErr)

		err := producer.Publish(ctx, "tx-1", payload)
		assert.Error(t, err)
		assert.ErrorIs(t, err, writeErr)
	})
}

func TestLedgerEventProducer_Close(t *testing.T) {
	writer := new(MockKafkaWriter)
	producer := &LedgerEventProducer{logger: newProducerLogger(), writer: writer, topic: "ledger.events"}

	writer.On("Close").Return(nil)

	err := producer.Close()
	assert.NoError(t, err)
	writer.AssertExpectations(t)
}
