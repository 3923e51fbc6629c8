package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocalCurrency is the currency of record. Transactions in LocalCurrency
// always carry an exchange rate of exactly 1.
const LocalCurrency = "BRL"

// Kind is the closed set of transaction kinds.
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindPurchase   Kind = "PURCHASE"
	KindTransfer   Kind = "TRANSFER"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindPurchase, KindTransfer:
		return true
	}
	return false
}

// Category classifies a transaction for analytics.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryShopping      Category = "SHOPPING"
	CategoryBills         Category = "BILLS"
	CategoryHealth        Category = "HEALTH"
	CategoryEducation     Category = "EDUCATION"
	CategorySalary        Category = "SALARY"
	CategoryInvestment    Category = "INVESTMENT"
	CategoryOther         Category = "OTHER"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryEntertainment,
		CategoryShopping, CategoryBills, CategoryHealth,
		CategoryEducation, CategorySalary, CategoryInvestment,
		CategoryOther:
		return true
	}
	return false
}

// Status is the settlement state of a transaction.
//
// Pending is the sole initial state. Approved and Error are terminal:
// once a transaction reaches either, no further transition is permitted.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusError    Status = "ERROR"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusError
}

// CanTransition reports whether the state machine permits moving from s to.
func (s Status) CanTransition(to Status) bool {
	if s != StatusPending {
		return false
	}
	return to == StatusApproved || to == StatusError
}

// Transaction is one monetary movement. Identity and monetary fields are
// immutable after creation; only Status is mutated, and only by the
// settlement pipeline.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           Kind            `json:"kind"`
	Category       Category        `json:"category"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	Rate           decimal.Decimal `json:"rate"`
	Currency       string          `json:"currency"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Involves reports whether accountID is the owner or the counterparty.
func (t Transaction) Involves(accountID uuid.UUID) bool {
	if t.OwnerID == accountID {
		return true
	}
	return t.CounterpartyID != nil && *t.CounterpartyID == accountID
}
