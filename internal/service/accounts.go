package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/store"
)

// BalanceCreator opens an account record in the external balance ledger.
type BalanceCreator interface {
	CreateAccount(ctx context.Context, accountID uuid.UUID, initial decimal.Decimal) error
}

// Accounts is the account boundary: creation plus lookups. Credential
// handling lives outside the core; the hash arrives ready to store.
type Accounts struct {
	accounts store.AccountRepository
	balances BalanceCreator
	log      zerolog.Logger
}

// NewAccounts wires the account service.
func NewAccounts(accounts store.AccountRepository, balances BalanceCreator, log zerolog.Logger) *Accounts {
	return &Accounts{accounts: accounts, balances: balances, log: log}
}

// Create persists a new account and opens its record in the external
// balance ledger with a random initial balance. The ledger call is best
// effort: failures are logged and swallowed.
func (s *Accounts) Create(ctx context.Context, name, email, passwordHash string) (domain.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return domain.Account{}, domain.Validationf("name is required")
	}
	if email == "" {
		return domain.Account{}, domain.Validationf("email is required")
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return domain.Account{}, domain.Validationf("email already registered")
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Account{}, fmt.Errorf("checking email: %w", err)
	}

	account := domain.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, &account); err != nil {
		return domain.Account{}, fmt.Errorf("persisting account: %w", err)
	}

	initial := initialBalance()
	if err := s.balances.CreateAccount(ctx, account.ID, initial); err != nil {
		s.log.Warn().Err(err).Stringer("account_id", account.ID).Msg("Opening external balance record failed")
	} else {
		s.log.Info().Stringer("account_id", account.ID).Str("initial_balance", initial.String()).Msg("External balance record opened")
	}

	return account, nil
}

// Get resolves an account by id.
func (s *Accounts) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// List returns all accounts.
func (s *Accounts) List(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// initialBalance picks a starting balance in [100, 5100) with cents.
func initialBalance() decimal.Decimal {
	cents := 10000 + rand.Int64N(500000)
	return decimal.New(cents, -2)
}
