// Package store defines the persistence seams of the core. Implementations
// must be safe for concurrent use; no component holds process-wide state
// outside of them.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kivo-app/kivo/internal/domain"
)

// TransactionRepository is the durable record of all transactions.
type TransactionRepository interface {
	// Create persists a new transaction. The id must be unique.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByID returns the current record, or domain.ErrTransactionNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error)

	// Transition atomically moves the transaction from `from` to `to`.
	// It fails with domain.ErrInvalidTransition unless the current status
	// equals `from` and the state machine permits the move. This is the
	// only mutating operation after Create; the read-check-write must not
	// interleave with concurrent transitions for the same id.
	Transition(ctx context.Context, id uuid.UUID, from, to domain.Status) error

	// HistoryByAccount returns every transaction where the account is owner
	// or counterparty, newest first.
	HistoryByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)

	// ListInRange returns transactions involving the account with
	// CreatedAt in [from, to], oldest first.
	ListInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.Transaction, error)
}

// AccountRepository resolves and stores account records.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error

	// GetByID returns the account, or domain.ErrAccountNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error)

	// GetByEmail returns the account, or domain.ErrAccountNotFound.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	List(ctx context.Context) ([]domain.Account, error)
}
