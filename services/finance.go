package services

import (
	"context"
	"database/sql"

	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/utils"
)

// FinanceService owns the append-only transaction ledger and the balances
// derived from it. Budget and member balances are adjusted with relative
// UPDATEs executed in the same transaction as the ledger insert, so two
// racing EXPENSE or FEE calls can never drop each other's effect.
type FinanceService struct {
	db *sql.DB
}

func NewFinanceService(db *sql.DB) *FinanceService {
	return &FinanceService{db: db}
}

// Record appends a transaction and applies its authoritative effect:
// DEPOSIT and EXPENSE move the team budget, FEE debits the target
// member's balance and leaves the budget alone. The response carries the
// post-mutation value of whichever field moved.
func (s *FinanceService) Record(ctx context.Context, actorID string, req models.RecordTransactionRequest) (*models.RecordTransactionResponse, error) {
	actor, err := s.memberByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdminTier() {
		return nil, &models.AuthorizationError{Msg: "only admins and captains can record transactions"}
	}

	if err := models.ValidateTransaction(req.Kind, req.Amount, req.Title, req.MemberID); err != nil {
		return nil, err
	}

	if req.MemberID != "" {
		if _, err := s.memberByID(ctx, req.MemberID); err != nil {
			return nil, err
		}
	}

	teamID := actor.TeamID
	resp := &models.RecordTransactionResponse{}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var memberID interface{}
		if req.MemberID != "" {
			memberID = req.MemberID
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO transactions (team_id, kind, amount, title, member_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, teamID, req.Kind, req.Amount, req.Title, memberID).Scan(&resp.Transaction.ID, &resp.Transaction.CreatedAt)
		if err != nil {
			return err
		}

		switch req.Kind {
		case models.KindDeposit:
			var budget float64
			err = tx.QueryRowContext(ctx, `
				UPDATE teams SET budget = budget + $1 WHERE id = $2
				RETURNING budget
			`, req.Amount, teamID).Scan(&budget)
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Resource: "team", ID: teamID}
			}
			if err != nil {
				return err
			}
			resp.Budget = &budget

		case models.KindExpense:
			var budget float64
			err = tx.QueryRowContext(ctx, `
				UPDATE teams SET budget = budget - $1 WHERE id = $2
				RETURNING budget
			`, req.Amount, teamID).Scan(&budget)
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Resource: "team", ID: teamID}
			}
			if err != nil {
				return err
			}
			resp.Budget = &budget

		case models.KindFee:
			var balance float64
			err = tx.QueryRowContext(ctx, `
				UPDATE members SET balance = balance - $1 WHERE id = $2
				RETURNING balance
			`, req.Amount, req.MemberID).Scan(&balance)
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Resource: "member", ID: req.MemberID}
			}
			if err != nil {
				return err
			}
			resp.MemberBalance = &balance
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Transaction.TeamID = teamID
	resp.Transaction.Kind = req.Kind
	resp.Transaction.Amount = req.Amount
	resp.Transaction.Title = req.Title
	resp.Transaction.MemberID = req.MemberID

	return resp, nil
}

// ListTransactions returns a team's ledger, newest first.
func (s *FinanceService) ListTransactions(ctx context.Context, teamID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.team_id, t.kind, t.amount, t.title, COALESCE(t.member_id::text, ''),
		       COALESCE(m.name, ''), t.created_at
		FROM transactions t
		LEFT JOIN members m ON t.member_id = m.id
		WHERE t.team_id = $1
		ORDER BY t.created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.TeamID, &t.Kind, &t.Amount, &t.Title, &t.MemberID, &t.MemberName, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ListDebtors returns members with a negative balance ordered ascending
// (largest debt first) plus the summed absolute debt. Both are derived
// from the roster the ledger maintains, never a separate cache.
func (s *FinanceService) ListDebtors(ctx context.Context, teamID string) (*models.DebtorsResponse, error) {
	members, err := s.Members(ctx, teamID)
	if err != nil {
		return nil, err
	}
	resp := models.DeriveDebtors(members)
	return &resp, nil
}

// Team returns a team's authoritative state.
func (s *FinanceService) Team(ctx context.Context, teamID string) (*models.Team, error) {
	var t models.Team
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(short_code, ''), budget FROM teams WHERE id = $1
	`, teamID).Scan(&t.ID, &t.Name, &t.ShortCode, &t.Budget)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "team", ID: teamID}
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Members returns a team's roster.
func (s *FinanceService) Members(ctx context.Context, teamID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, name, nickname, COALESCE(avatar, ''), role, status, balance
		FROM members
		WHERE team_id = $1
		ORDER BY name
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Nickname, &m.Avatar, &m.Role, &m.Status, &m.Balance); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *FinanceService) memberByID(ctx context.Context, memberID string) (*models.Member, error) {
	var m models.Member
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, nickname, COALESCE(avatar, ''), role, status, balance
		FROM members
		WHERE id = $1
	`, memberID).Scan(&m.ID, &m.TeamID, &m.Name, &m.Nickname, &m.Avatar, &m.Role, &m.Status, &m.Balance)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "member", ID: memberID}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
