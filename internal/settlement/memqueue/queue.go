// Package memqueue is an in-process settlement queue built on channels.
// It implements the same publisher/consumer contract as the Kafka broker
// and is used for single-node runs and tests. It honors the retry policy
// and routes exhausted or fatal events to the dead-letter handler.
package memqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kivo-app/kivo/internal/settlement"
)

type envelope struct {
	ev      settlement.Event
	attempt int
}

// Queue is a channel-backed settlement queue with a worker pool. Safe for
// concurrent use.
type Queue struct {
	events    chan envelope
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool

	workers int
	policy  settlement.RetryPolicy
	dead    settlement.DeadLetterHandler
	log     zerolog.Logger
}

// New creates a queue. bufferSize bounds how many events can sit in the
// queue before Publish blocks; workers is the consumer pool size.
func New(bufferSize, workers int, policy settlement.RetryPolicy, dead settlement.DeadLetterHandler, log zerolog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		events:    make(chan envelope, bufferSize),
		closeChan: make(chan struct{}),
		workers:   workers,
		policy:    policy,
		dead:      dead,
		log:       log,
	}
}

// Publish implements settlement.Publisher.
func (q *Queue) Publish(ctx context.Context, ev settlement.Event) error {
	return q.enqueue(ctx, envelope{ev: ev, attempt: 1})
}

func (q *Queue) enqueue(ctx context.Context, env envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("memqueue: queue is closed")
	}

	select {
	case q.events <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("memqueue: queue is closed")
	}
}

// Start implements settlement.Consumer.
func (q *Queue) Start(ctx context.Context, handler settlement.Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("memqueue: queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler settlement.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case env := <-q.events:
			q.process(ctx, env, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, env envelope, handler settlement.Handler) {
	outcome := handler.Handle(ctx, env.ev)

	switch outcome {
	case settlement.Done:
		return

	case settlement.Fail:
		q.deadLetter(ctx, env.ev)

	case settlement.RetryLater:
		if env.attempt >= q.policy.MaxAttempts {
			q.log.Warn().
				Stringer("transaction_id", env.ev.Transaction.ID).
				Int("attempts", env.attempt).
				Msg("Retry budget exhausted, dead-lettering")
			q.deadLetter(ctx, env.ev)
			return
		}

		next := envelope{ev: env.ev, attempt: env.attempt + 1}
		delay := q.policy.Delay(env.attempt)
		q.log.Debug().
			Stringer("transaction_id", env.ev.Transaction.ID).
			Int("attempt", env.attempt).
			Dur("backoff", delay).
			Msg("Settlement attempt failed, scheduling retry")

		time.AfterFunc(delay, func() {
			if err := q.enqueue(ctx, next); err != nil {
				q.log.Warn().Err(err).
					Stringer("transaction_id", env.ev.Transaction.ID).
					Msg("Re-enqueue for retry failed")
			}
		})
	}
}

func (q *Queue) deadLetter(ctx context.Context, ev settlement.Event) {
	if q.dead == nil {
		q.log.Error().Stringer("transaction_id", ev.Transaction.ID).Msg("No dead-letter handler configured, dropping event")
		return
	}
	q.dead.HandleDead(ctx, ev)
}

// Stop implements settlement.Consumer. It stops the workers and waits for
// in-flight events, bounded by ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements settlement.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ settlement.Publisher = (*Queue)(nil)
var _ settlement.Consumer = (*Queue)(nil)
