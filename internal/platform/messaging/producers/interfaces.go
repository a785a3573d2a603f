package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes serialized ledger events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
