package repository

import (
	"database/sql"
	"fmt"
	"time"

	"equishare/internal/database"
	"equishare/internal/models"
)

// ExpenseRepository handles database operations for expenses and splits
type ExpenseRepository struct {
	db *database.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *database.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// CreateExpense inserts an expense and its splits in one transaction
func (r *ExpenseRepository) CreateExpense(expense *models.Expense, splits []models.ExpenseSplit) (*models.Expense, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (group_id, paid_by, description, amount_cents)
		VALUES (?, ?, ?, ?)
	`
	expenseID, err := tx.ExecReturningID(query,
		expense.GroupID, expense.PaidBy, expense.Description, expense.AmountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	query = "INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES (?, ?, ?)"
	for _, split := range splits {
		if _, err := tx.Exec(query, expenseID, split.UserID, split.AmountCents); err != nil {
			return nil, fmt.Errorf("failed to create expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	created := *expense
	created.ID = expenseID
	created.CreatedAt = time.Now()
	return &created, nil
}

// GetExpenseByID retrieves a single expense
func (r *ExpenseRepository) GetExpenseByID(expenseID int64) (*models.Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.paid_by, e.description, e.amount_cents, e.created_at, u.name
		FROM expenses e
		INNER JOIN users u ON e.paid_by = u.id
		WHERE e.id = ?
	`
	expense := &models.Expense{}
	err := r.db.QueryRow(query, expenseID).Scan(
		&expense.ID, &expense.GroupID, &expense.PaidBy,
		&expense.Description, &expense.AmountCents, &expense.CreatedAt,
		&expense.PayerName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetGroupExpenses retrieves all expenses for a group, newest first
func (r *ExpenseRepository) GetGroupExpenses(groupID int64) ([]models.Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.paid_by, e.description, e.amount_cents, e.created_at, u.name
		FROM expenses e
		INNER JOIN users u ON e.paid_by = u.id
		WHERE e.group_id = ?
		ORDER BY e.created_at DESC
	`
	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		if err := rows.Scan(
			&expense.ID, &expense.GroupID, &expense.PaidBy,
			&expense.Description, &expense.AmountCents, &expense.CreatedAt,
			&expense.PayerName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// GetExpenseSplits retrieves the splits for an expense
func (r *ExpenseRepository) GetExpenseSplits(expenseID int64) ([]models.ExpenseSplit, error) {
	query := "SELECT id, expense_id, user_id, amount_cents FROM expense_splits WHERE expense_id = ?"
	rows, err := r.db.Query(query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		var split models.ExpenseSplit
		if err := rows.Scan(&split.ID, &split.ExpenseID, &split.UserID, &split.AmountCents); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		splits = append(splits, split)
	}

	return splits, rows.Err()
}

// GetGroupBalances computes each member's paid and owed totals for a group
func (r *ExpenseRepository) GetGroupBalances(groupID int64) ([]models.MemberBalance, error) {
	query := `
		SELECT u.id, u.name,
		       COALESCE((SELECT SUM(e.amount_cents) FROM expenses e WHERE e.group_id = gm.group_id AND e.paid_by = u.id), 0),
		       COALESCE((SELECT SUM(es.amount_cents) FROM expense_splits es
		                 INNER JOIN expenses e2 ON es.expense_id = e2.id
		                 WHERE e2.group_id = gm.group_id AND es.user_id = u.id), 0)
		FROM group_members gm
		INNER JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at ASC
	`
	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []models.MemberBalance
	for rows.Next() {
		var b models.MemberBalance
		if err := rows.Scan(&b.UserID, &b.Name, &b.PaidCents, &b.OwedCents); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		b.BalanceCents = b.PaidCents - b.OwedCents
		balances = append(balances, b)
	}

	return balances, rows.Err()
}
