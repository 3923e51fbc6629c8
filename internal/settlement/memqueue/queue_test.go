package memqueue

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/logger"
	"github.com/kivo-app/kivo/internal/settlement"
	"github.com/kivo-app/kivo/internal/store/memory"
)

// fastPolicy keeps backoff out of test runtime.
var fastPolicy = settlement.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

func seedPending(t *testing.T, s *memory.TransactionStore) domain.Transaction {
	t.Helper()
	tx := domain.Transaction{
		ID:        uuid.New(),
		Amount:    decimal.NewFromInt(200),
		Kind:      domain.KindDeposit,
		Category:  domain.CategoryOther,
		OwnerID:   uuid.New(),
		Rate:      decimal.NewFromInt(1),
		Currency:  domain.LocalCurrency,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Create(context.Background(), &tx); err != nil {
		t.Fatalf("seeding transaction: %v", err)
	}
	return tx
}

func waitForStatus(t *testing.T, s *memory.TransactionStore, id uuid.UUID, want domain.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tx, err := s.GetByID(context.Background(), id)
		if err == nil && tx.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	tx, _ := s.GetByID(context.Background(), id)
	t.Fatalf("status = %s, want %s", tx.Status, want)
}

func TestQueue_DeliveredOnceEndsApproved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewWithWriter(io.Discard)
	store := memory.NewTransactionStore()
	tx := seedPending(t, store)

	dead := settlement.NewDeadLetter(store, nil, log)
	q := New(10, 2, fastPolicy, dead, log)
	defer q.Close()

	if err := q.Start(ctx, settlement.NewProcessor(store, nil, log)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := q.Publish(ctx, settlement.NewEvent(tx)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForStatus(t, store, tx.ID, domain.StatusApproved)
}

func TestQueue_PermanentFaultDeadLettersAfterThreeAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewWithWriter(io.Discard)
	store := memory.NewTransactionStore()
	tx := seedPending(t, store)

	var attempts atomic.Int32
	failing := settlement.HandlerFunc(func(ctx context.Context, ev settlement.Event) settlement.Outcome {
		attempts.Add(1)
		return settlement.RetryLater
	})

	dead := settlement.NewDeadLetter(store, nil, log)
	q := New(10, 2, fastPolicy, dead, log)
	defer q.Close()

	if err := q.Start(ctx, failing); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := q.Publish(ctx, settlement.NewEvent(tx)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForStatus(t, store, tx.ID, domain.StatusError)

	// Give any stray retry a chance to fire before asserting the budget.
	time.Sleep(50 * time.Millisecond)
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want exactly 3", got)
	}
}

func TestQueue_FatalFaultSkipsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewWithWriter(io.Discard)
	store := memory.NewTransactionStore()
	tx := seedPending(t, store)

	var attempts atomic.Int32
	fatal := settlement.HandlerFunc(func(ctx context.Context, ev settlement.Event) settlement.Outcome {
		attempts.Add(1)
		return settlement.Fail
	})

	dead := settlement.NewDeadLetter(store, nil, log)
	q := New(10, 1, fastPolicy, dead, log)
	defer q.Close()

	if err := q.Start(ctx, fatal); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := q.Publish(ctx, settlement.NewEvent(tx)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForStatus(t, store, tx.ID, domain.StatusError)
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (fatal faults are not retried)", got)
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	q := New(1, 1, fastPolicy, nil, log)

	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := q.Publish(context.Background(), settlement.Event{}); err == nil {
		t.Error("Publish after Close should fail")
	}
}
