// Package service holds the application use cases over the injected
// repositories and gateway clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kivo-app/kivo/internal/domain"
	"github.com/kivo-app/kivo/internal/settlement"
	"github.com/kivo-app/kivo/internal/store"
)

// RateSource quotes a currency against the local currency.
type RateSource interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// BalanceSource reads the externally sourced balance for an account.
type BalanceSource interface {
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// Transactions is the transaction use-case layer: registration, statement
// composition and analytics.
type Transactions struct {
	txs       store.TransactionRepository
	accounts  store.AccountRepository
	rates     RateSource
	balances  BalanceSource
	publisher settlement.Publisher
	log       zerolog.Logger
}

// NewTransactions wires the transaction service.
func NewTransactions(
	txs store.TransactionRepository,
	accounts store.AccountRepository,
	rates RateSource,
	balances BalanceSource,
	publisher settlement.Publisher,
	log zerolog.Logger,
) *Transactions {
	return &Transactions{
		txs:       txs,
		accounts:  accounts,
		rates:     rates,
		balances:  balances,
		publisher: publisher,
		log:       log,
	}
}

// RegisterInput is the request to record one monetary movement.
type RegisterInput struct {
	Amount         decimal.Decimal
	Kind           domain.Kind
	OwnerID        uuid.UUID
	Category       domain.Category
	CounterpartyID *uuid.UUID
	Currency       string
}

// Register validates the input, persists a Pending transaction and hands it
// to the settlement pipeline. Publishing is best effort: a dispatch failure
// is logged and the transaction stays Pending until external reconciliation.
func (s *Transactions) Register(ctx context.Context, in RegisterInput) (domain.Transaction, error) {
	if !in.Amount.IsPositive() {
		return domain.Transaction{}, domain.Validationf("amount must be positive")
	}
	if !in.Kind.Valid() {
		return domain.Transaction{}, domain.Validationf("unknown transaction kind")
	}

	category := in.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.Valid() {
		return domain.Transaction{}, domain.Validationf("unknown category")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.LocalCurrency
	}

	if _, err := s.accounts.GetByID(ctx, in.OwnerID); err != nil {
		return domain.Transaction{}, fmt.Errorf("resolving owner: %w", err)
	}

	counterparty, err := s.resolveCounterparty(ctx, in)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		ID:             uuid.New(),
		Amount:         in.Amount,
		Kind:           in.Kind,
		Category:       category,
		OwnerID:        in.OwnerID,
		CounterpartyID: counterparty,
		Rate:           s.resolveRate(ctx, currency),
		Currency:       currency,
		Status:         domain.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.txs.Create(ctx, &tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("persisting transaction: %w", err)
	}

	s.log.Info().
		Stringer("transaction_id", tx.ID).
		Str("kind", string(tx.Kind)).
		Str("category", string(tx.Category)).
		Str("currency", tx.Currency).
		Msg("Transaction registered")

	s.dispatch(ctx, tx)
	return tx, nil
}

// resolveCounterparty enforces the transfer rules. For any non-transfer
// kind the counterparty is forced to absent regardless of input.
func (s *Transactions) resolveCounterparty(ctx context.Context, in RegisterInput) (*uuid.UUID, error) {
	if in.Kind != domain.KindTransfer {
		return nil, nil
	}
	if in.CounterpartyID == nil {
		return nil, domain.Validationf("recipient required for transfers")
	}
	if *in.CounterpartyID == in.OwnerID {
		return nil, domain.Validationf("sender and recipient must differ")
	}
	if _, err := s.accounts.GetByID(ctx, *in.CounterpartyID); err != nil {
		return nil, fmt.Errorf("resolving recipient: %w", err)
	}

	id := *in.CounterpartyID
	return &id, nil
}

// resolveRate is degrade-not-fail: a quote outage never blocks recording
// the movement, it is recorded with rate 0 instead.
func (s *Transactions) resolveRate(ctx context.Context, currency string) decimal.Decimal {
	if strings.EqualFold(currency, domain.LocalCurrency) {
		return decimal.NewFromInt(1)
	}

	rate, err := s.rates.Rate(ctx, currency)
	if err != nil {
		s.log.Warn().Err(err).Str("currency", currency).Msg("Quote lookup failed, recording rate 0")
		return decimal.Zero
	}
	return rate
}

// dispatch hands the snapshot to the broker. Registration success is
// independent of dispatch success.
func (s *Transactions) dispatch(ctx context.Context, tx domain.Transaction) {
	if err := s.publisher.Publish(ctx, settlement.NewEvent(tx)); err != nil {
		s.log.Error().Err(err).Stringer("transaction_id", tx.ID).Msg("Publishing settlement event failed, transaction stays pending")
		return
	}
	s.log.Info().Stringer("transaction_id", tx.ID).Msg("Settlement event published")
}

// Balance returns the externally sourced balance, zero on any failure.
func (s *Transactions) Balance(ctx context.Context, accountID uuid.UUID) decimal.Decimal {
	bal, err := s.balances.Balance(ctx, accountID)
	if err != nil {
		s.log.Warn().Err(err).Stringer("account_id", accountID).Msg("Balance lookup failed, using 0")
		return decimal.Zero
	}
	return bal
}

// Statement composes the external balance with the full local history where
// the account is owner or counterparty, newest first.
func (s *Transactions) Statement(ctx context.Context, accountID uuid.UUID) (domain.Statement, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("resolving account: %w", err)
	}

	history, err := s.txs.HistoryByAccount(ctx, accountID)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("loading history: %w", err)
	}

	return domain.Statement{
		AccountID:   account.ID,
		AccountName: account.Name,
		Balance:     s.Balance(ctx, accountID),
		History:     history,
	}, nil
}

// DailyAnalytics sums amounts per calendar day over the closed interval
// [start of from, end of to], ascending by date. An interval with no
// matching transactions yields an empty slice.
func (s *Transactions) DailyAnalytics(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.DailyTotal, error) {
	txs, err := s.listInterval(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]decimal.Decimal)
	for _, tx := range txs {
		day := dateOf(tx.CreatedAt)
		byDay[day] = byDay[day].Add(tx.Amount)
	}

	result := make([]domain.DailyTotal, 0, len(byDay))
	for day, total := range byDay {
		result = append(result, domain.DailyTotal{Date: day, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// CategoryAnalytics sums amounts per category over the closed interval.
// No ordering is guaranteed.
func (s *Transactions) CategoryAnalytics(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.CategoryTotal, error) {
	txs, err := s.listInterval(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[domain.Category]decimal.Decimal)
	for _, tx := range txs {
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
	}

	result := make([]domain.CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		result = append(result, domain.CategoryTotal{Category: category, Total: total})
	}
	return result, nil
}

func (s *Transactions) listInterval(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.Transaction, error) {
	if to.Before(from) {
		return nil, domain.Validationf("end date before start date")
	}

	start := dateOf(from)
	end := dateOf(to).Add(24*time.Hour - time.Nanosecond)

	txs, err := s.txs.ListInRange(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return txs, nil
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsNotFound reports whether err is an account or transaction lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrTransactionNotFound)
}
