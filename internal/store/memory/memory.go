// Package memory holds the in-memory store implementations. Records are
// copied on the way in and out, and every mutation runs under one lock, so
// the read-check-write of a status transition cannot interleave with a
// concurrent transition for the same id.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/store"
)

// TransactionStore is an in-memory TransactionRepository.
type TransactionStore struct {
	mu  sync.RWMutex
	txs map[uuid.UUID]*domain.Transaction
}

// NewTransactionStore creates an empty transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[uuid.UUID]*domain.Transaction)}
}

// Create implements store.TransactionRepository.
func (s *TransactionStore) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == uuid.Nil {
		return fmt.Errorf("transaction id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txs[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}

	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

// GetByID implements store.TransactionRepository.
func (s *TransactionStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.txs[id]
	if !exists {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	return *tx, nil
}

// Transition implements store.TransactionRepository. The whole
// load-check-write happens under the write lock.
func (s *TransactionStore) Transition(ctx context.Context, id uuid.UUID, from, to domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.txs[id]
	if !exists {
		return domain.ErrTransactionNotFound
	}
	if tx.Status != from || !tx.Status.CanTransition(to) {
		return fmt.Errorf("%s -> %s (current %s): %w", from, to, tx.Status, domain.ErrInvalidTransition)
	}

	tx.Status = to
	return nil
}

// HistoryByAccount implements store.TransactionRepository.
func (s *TransactionStore) HistoryByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if tx.Involves(accountID) {
			result = append(result, *tx)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return result, nil
}

// ListInRange implements store.TransactionRepository.
func (s *TransactionStore) ListInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if !tx.Involves(accountID) {
			continue
		}
		if tx.CreatedAt.Before(from) || tx.CreatedAt.After(to) {
			continue
		}
		result = append(result, *tx)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// AccountStore is an in-memory AccountRepository.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

// NewAccountStore creates an empty account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uuid.UUID]*domain.Account)}
}

// Create implements store.AccountRepository.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == uuid.Nil {
		return fmt.Errorf("account id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}

	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

// GetByID implements store.AccountRepository.
func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[id]
	if !exists {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *account, nil
}

// GetByEmail implements store.AccountRepository.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			return *account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

// List implements store.AccountRepository.
func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		result = append(result, *account)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

var _ store.TransactionRepository = (*TransactionStore)(nil)
var _ store.AccountRepository = (*AccountStore)(nil)
