package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/kivo-app/kivo/internal/settlement"
)

// DeadLetterConsumer drains the dead-letter topic and hands each event to
// the dead-letter handler, which marks the transaction errored. Handling is
// terminal: whatever the handler does, the offset is committed.
type DeadLetterConsumer struct {
	reader *kafka.Reader
	dead   settlement.DeadLetterHandler
	log    zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewDeadLetterConsumer creates a consumer on the dead-letter topic derived
// from the primary topic name.
func NewDeadLetterConsumer(brokers []string, topic, group string, dead settlement.DeadLetterHandler, log zerolog.Logger) *DeadLetterConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group + "-dlq",
		Topic:    topic + DeadLetterSuffix,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	return &DeadLetterConsumer{reader: reader, dead: dead, log: log}
}

// Start begins draining the dead-letter topic.
func (c *DeadLetterConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(runCtx)
	return nil
}

func (c *DeadLetterConsumer) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("Kafka fetch error on dead-letter topic")
			continue
		}

		if ev, err := settlement.DecodeEvent(msg.Value); err != nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("Undecodable dead-letter event, dropping")
		} else {
			c.dead.HandleDead(ctx, ev)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Msg("Kafka commit error on dead-letter topic")
		}
	}
}

// Stop stops draining and closes the reader.
func (c *DeadLetterConsumer) Stop(ctx context.Context) error {
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
	return c.reader.Close()
}
