package models

import (
	"errors"
	"testing"
)

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		amount   float64
		title    string
		memberID string
		wantErr  bool
	}{
		{"valid deposit", KindDeposit, 100, "sponsor", "", false},
		{"deposit may name the paying member", KindDeposit, 100, "dues", "m1", false},
		{"valid expense", KindExpense, 50, "balls", "", false},
		{"valid fee", KindFee, 20, "late fee", "m1", false},
		{"zero amount", KindDeposit, 0, "sponsor", "", true},
		{"negative amount", KindExpense, -5, "balls", "", true},
		{"fee without member", KindFee, 20, "late fee", "", true},
		{"expense with member", KindExpense, 50, "balls", "m1", true},
		{"missing title", KindDeposit, 100, "", "", true},
		{"unknown kind", "REFUND", 100, "oops", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransaction(tt.kind, tt.amount, tt.title, tt.memberID)
			if tt.wantErr {
				var validation *ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDeriveDebtors(t *testing.T) {
	members := []Member{
		{ID: "m1", Nickname: "Sniper_Alex", Balance: 0},
		{ID: "m2", Nickname: "Demon", Balance: 1500},
		{ID: "m3", Nickname: "Tank", Balance: -2000},
		{ID: "m4", Nickname: "Ghost", Balance: -500},
	}

	got := DeriveDebtors(members)

	if len(got.Debtors) != 2 {
		t.Fatalf("expected 2 debtors, got %d", len(got.Debtors))
	}
	if got.Debtors[0].ID != "m3" || got.Debtors[1].ID != "m4" {
		t.Fatalf("expected largest debt first, got %s then %s", got.Debtors[0].ID, got.Debtors[1].ID)
	}
	if got.TotalDebt != 2500 {
		t.Fatalf("expected total debt 2500, got %v", got.TotalDebt)
	}
}

func TestDeriveDebtorsEmptyWhenNobodyOwes(t *testing.T) {
	got := DeriveDebtors([]Member{{ID: "m1", Balance: 0}, {ID: "m2", Balance: 300}})

	if len(got.Debtors) != 0 || got.TotalDebt != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
}
