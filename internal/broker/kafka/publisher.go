// Package kafka carries settlement events over Kafka. The primary topic
// holds freshly registered transactions; events that exhaust their retry
// budget are republished to the dead-letter topic, named by suffixing the
// primary topic with ".dlq".
package kafka

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/kivo-app/kivo/internal/settlement"
)

// DeadLetterSuffix is appended to the primary topic name to form the
// dead-letter topic.
const DeadLetterSuffix = ".dlq"

// Publisher writes settlement events to the primary topic, keyed by
// transaction id.
type Publisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{
		writer: newWriter(brokers, topic),
		log:    log,
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// Publish implements settlement.Publisher.
func (p *Publisher) Publish(ctx context.Context, ev settlement.Event) error {
	value, err := ev.Encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(ev.Transaction.ID.String()),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publishing settlement event %s: %w", ev.Transaction.ID, err)
	}
	return nil
}

// Close implements settlement.Publisher.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ settlement.Publisher = (*Publisher)(nil)
