package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction tells whether a transaction moves money into or out of the
// account a statement belongs to.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Statement is a derived, non-persisted view: the externally sourced balance
// plus the full history where the account is owner or counterparty, newest
// first.
type Statement struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
	History     []Transaction   `json:"history"`
}

// DirectionOf resolves the money direction of t relative to the statement's
// account. Transfers are compared by account id: a transfer is outgoing iff
// the statement account is the owner.
func (s Statement) DirectionOf(t Transaction) Direction {
	switch t.Kind {
	case KindDeposit:
		return DirectionIn
	case KindWithdrawal, KindPurchase:
		return DirectionOut
	default:
		if t.OwnerID == s.AccountID {
			return DirectionOut
		}
		return DirectionIn
	}
}

// Totals sums the history into inflow and outflow buckets.
func (s Statement) Totals() (inflow, outflow decimal.Decimal) {
	for _, t := range s.History {
		if s.DirectionOf(t) == DirectionIn {
			inflow = inflow.Add(t.Amount)
		} else {
			outflow = outflow.Add(t.Amount)
		}
	}
	return inflow, outflow
}
