package models

import (
	"sort"
	"time"
)

// Transaction kinds. DEPOSIT and EXPENSE move the team treasury; FEE
// debits the targeted member's balance and leaves the treasury alone.
const (
	KindDeposit = "DEPOSIT"
	KindExpense = "EXPENSE"
	KindFee     = "FEE"
)

// Transaction is append-only: recorded once, never updated or deleted.
type Transaction struct {
	ID         string    `json:"id"`
	TeamID     string    `json:"team_id"`
	Kind       string    `json:"kind"`
	Amount     float64   `json:"amount"`
	Title      string    `json:"title"`
	MemberID   string    `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateTransaction checks the structural rules shared by the store and
// the client's local prediction. Amount must be positive; FEE must target
// a member; EXPENSE never does.
func ValidateTransaction(kind string, amount float64, title, memberID string) error {
	switch kind {
	case KindDeposit, KindExpense, KindFee:
	default:
		return NewValidationError("unknown transaction kind %q", kind)
	}
	if amount <= 0 {
		return NewValidationError("amount must be positive")
	}
	if title == "" {
		return NewValidationError("title is required")
	}
	if kind == KindFee && memberID == "" {
		return NewValidationError("FEE requires a target member")
	}
	if kind == KindExpense && memberID != "" {
		return NewValidationError("EXPENSE cannot target a member")
	}
	return nil
}

type RecordTransactionRequest struct {
	Kind     string  `json:"kind" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Title    string  `json:"title" binding:"required"`
	MemberID string  `json:"member_id"`
}

// RecordTransactionResponse carries the authoritative post-mutation values
// affected by the transaction. Only the touched field is set.
type RecordTransactionResponse struct {
	Transaction   Transaction `json:"transaction"`
	Budget        *float64    `json:"budget,omitempty"`
	MemberBalance *float64    `json:"member_balance,omitempty"`
}

// DebtorsResponse lists members with negative balance, largest debt first.
type DebtorsResponse struct {
	Debtors   []Member `json:"debtors"`
	TotalDebt float64  `json:"total_debt"`
}

// DeriveDebtors filters the members owing the team, orders them by
// balance ascending (largest debt first) and sums the absolute debt.
// Both server and client derive from the current balances through here,
// never from a separately maintained counter.
func DeriveDebtors(members []Member) DebtorsResponse {
	resp := DebtorsResponse{Debtors: []Member{}}
	for _, m := range members {
		if m.Balance < 0 {
			resp.Debtors = append(resp.Debtors, m)
			resp.TotalDebt += -m.Balance
		}
	}
	sort.Slice(resp.Debtors, func(i, j int) bool {
		return resp.Debtors[i].Balance < resp.Debtors[j].Balance
	})
	return resp
}

// InitResponse is the bulk snapshot fetched at session start.
type InitResponse struct {
	Member       Member          `json:"member"`
	Team         Team            `json:"team"`
	Members      []Member        `json:"members"`
	Events       []Event         `json:"events"`
	Transactions []Transaction   `json:"transactions"`
	Debtors      DebtorsResponse `json:"debtors"`
}
