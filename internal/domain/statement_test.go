package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStatement_DirectionOf(t *testing.T) {
	me := uuid.New()
	other := uuid.New()
	st := Statement{AccountID: me}

	tests := []struct {
		name string
		tx   Transaction
		want Direction
	}{
		{"deposit", Transaction{Kind: KindDeposit, OwnerID: me}, DirectionIn},
		{"withdrawal", Transaction{Kind: KindWithdrawal, OwnerID: me}, DirectionOut},
		{"purchase", Transaction{Kind: KindPurchase, OwnerID: me}, DirectionOut},
		{"transfer sent", Transaction{Kind: KindTransfer, OwnerID: me, CounterpartyID: &other}, DirectionOut},
		{"transfer received", Transaction{Kind: KindTransfer, OwnerID: other, CounterpartyID: &me}, DirectionIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := st.DirectionOf(tt.tx); got != tt.want {
				t.Errorf("DirectionOf(%s) = %s, want %s", tt.tx.Kind, got, tt.want)
			}
		})
	}
}

func TestStatement_Totals(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	st := Statement{
		AccountID: me,
		History: []Transaction{
			{Kind: KindDeposit, OwnerID: me, Amount: decimal.NewFromInt(200)},
			{Kind: KindPurchase, OwnerID: me, Amount: decimal.NewFromInt(50)},
			{Kind: KindTransfer, OwnerID: me, CounterpartyID: &other, Amount: decimal.NewFromInt(30)},
			{Kind: KindTransfer, OwnerID: other, CounterpartyID: &me, Amount: decimal.NewFromInt(75)},
		},
	}

	inflow, outflow := st.Totals()
	if !inflow.Equal(decimal.NewFromInt(275)) {
		t.Errorf("inflow = %s, want 275", inflow)
	}
	if !outflow.Equal(decimal.NewFromInt(80)) {
		t.Errorf("outflow = %s, want 80", outflow)
	}
}
