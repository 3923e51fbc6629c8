package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to error", StatusPending, StatusError, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"approved to error", StatusApproved, StatusError, false},
		{"approved to pending", StatusApproved, StatusPending, false},
		{"approved to approved", StatusApproved, StatusApproved, false},
		{"error to approved", StatusError, StatusApproved, false},
		{"error to pending", StatusError, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("Pending must not be terminal")
	}
	if !StatusApproved.Terminal() {
		t.Error("Approved must be terminal")
	}
	if !StatusError.Terminal() {
		t.Error("Error must be terminal")
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{KindDeposit, KindWithdrawal, KindPurchase, KindTransfer} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if Kind("LOAN").Valid() {
		t.Error("unknown kind should be invalid")
	}
	if Kind("").Valid() {
		t.Error("empty kind should be invalid")
	}
}

func TestCategory_Valid(t *testing.T) {
	if !CategoryOther.Valid() {
		t.Error("OTHER should be valid")
	}
	if Category("CRYPTO").Valid() {
		t.Error("unknown category should be invalid")
	}
}

func TestTransaction_Involves(t *testing.T) {
	owner := uuid.New()
	counterparty := uuid.New()
	stranger := uuid.New()

	tx := Transaction{OwnerID: owner, CounterpartyID: &counterparty}

	if !tx.Involves(owner) {
		t.Error("owner should be involved")
	}
	if !tx.Involves(counterparty) {
		t.Error("counterparty should be involved")
	}
	if tx.Involves(stranger) {
		t.Error("stranger should not be involved")
	}

	noCounterparty := Transaction{OwnerID: owner}
	if noCounterparty.Involves(counterparty) {
		t.Error("nil counterparty should not match")
	}
}
