package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/kivo-app/kivo/internal/settlement"
)

// Consumer pulls settlement events from the primary topic inside a consumer
// group and drives a handler. Failed attempts are retried in-process with
// exponential backoff up to the policy budget; exhausted or fatal events are
// republished to the dead-letter topic before the offset is committed, so
// an event is never lost between retry and dead-letter routing.
//
// The broker guarantees at-least-once delivery only. Per-key ordering is
// not guaranteed across partitions, so two deliveries for the same
// transaction id may be in flight concurrently; the handler guards status
// transitions accordingly.
type Consumer struct {
	reader *kafka.Reader
	dlq    *kafka.Writer
	policy settlement.RetryPolicy
	log    zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewConsumer creates a consumer group member for the primary topic.
func NewConsumer(brokers []string, topic, group string, policy settlement.RetryPolicy, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	return &Consumer{
		reader: reader,
		dlq:    newWriter(brokers, topic+DeadLetterSuffix),
		policy: policy,
		log:    log,
	}
}

// Start implements settlement.Consumer.
func (c *Consumer) Start(ctx context.Context, handler settlement.Handler) error {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(runCtx, handler)
	return nil
}

func (c *Consumer) run(ctx context.Context, handler settlement.Handler) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("Kafka fetch error")
			continue
		}

		c.handleMessage(ctx, msg, handler)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("Kafka commit error")
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message, handler settlement.Handler) {
	ev, err := settlement.DecodeEvent(msg.Value)
	if err != nil {
		// Undecodable payloads go straight to the dead-letter topic for
		// inspection; they can never succeed.
		c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("Undecodable settlement event")
		c.publishDead(ctx, msg.Key, msg.Value)
		return
	}

	for attempt := 1; ; attempt++ {
		outcome := handler.Handle(ctx, ev)

		switch outcome {
		case settlement.Done:
			return

		case settlement.Fail:
			c.publishDead(ctx, msg.Key, msg.Value)
			return

		case settlement.RetryLater:
			if attempt >= c.policy.MaxAttempts {
				c.log.Warn().
					Stringer("transaction_id", ev.Transaction.ID).
					Int("attempts", attempt).
					Msg("Retry budget exhausted, dead-lettering")
				c.publishDead(ctx, msg.Key, msg.Value)
				return
			}

			select {
			case <-time.After(c.policy.Delay(attempt)):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) publishDead(ctx context.Context, key, value []byte) {
	msg := kafka.Message{Key: key, Value: value}
	if err := c.dlq.WriteMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.log.Error().Err(err).Msg("Publishing to dead-letter topic failed")
	}
}

// Stop implements settlement.Consumer.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.dlq.Close()
}

var _ settlement.Consumer = (*Consumer)(nil)
