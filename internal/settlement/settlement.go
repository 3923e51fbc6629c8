// Package settlement moves transactions from Pending to a terminal status.
//
// The pipeline is broker-agnostic: a Publisher hands events to a queue, a
// Consumer drives a Handler for each delivered event, and the Handler's
// Outcome tells the runtime whether to ack, retry with backoff, or route to
// the dead-letter path. Delivery is at least once; handlers must tolerate
// re-delivery of already-settled transactions.
package settlement

import (
	"context"
	"time"
)

// Outcome is the explicit result a handler returns for one delivery. The
// consumer runtime routes on it instead of unwinding.
type Outcome int

const (
	// Done acks the event; it will not be delivered again.
	Done Outcome = iota

	// RetryLater re-delivers the event after a backoff, until the attempt
	// budget runs out, then routes it to the dead-letter path.
	RetryLater

	// Fail routes the event to the dead-letter path immediately. Used for
	// faults no retry can fix, such as an event for an unknown transaction.
	Fail
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case RetryLater:
		return "retry"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Handler processes one delivered settlement event.
type Handler interface {
	Handle(ctx context.Context, ev Event) Outcome
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) Outcome

func (f HandlerFunc) Handle(ctx context.Context, ev Event) Outcome {
	return f(ctx, ev)
}

// DeadLetterHandler receives events that exhausted their retry budget or
// failed fatally. It has no result: the dead-letter path is terminal.
type DeadLetterHandler interface {
	HandleDead(ctx context.Context, ev Event)
}

// Publisher hands settlement events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Consumer pulls settlement events and drives a Handler.
type Consumer interface {
	// Start begins consuming. It does not block; processing happens on
	// consumer-owned goroutines until Stop or context cancellation.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and waits for in-flight events, bounded by ctx.
	Stop(ctx context.Context) error
}

// RetryPolicy bounds re-delivery of failing events.
type RetryPolicy struct {
	// MaxAttempts is the total number of handler invocations per event,
	// including the first.
	MaxAttempts int

	// Backoff is the delay before the second attempt; it doubles for each
	// attempt after that.
	Backoff time.Duration
}

// DefaultRetryPolicy matches the broker contract: 3 attempts, 1s base
// backoff, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: time.Second}
}

// Delay returns the backoff before the attempt following `attempt`
// (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
