package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

const expenseColumns = "id, group_id, description, amount, paid_by, split_type, created_at"

// CreateExpense persists an expense and its splits in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = nowMillis()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			expense.ID, expense.GroupID, expense.Description, expense.Amount,
			expense.PaidBy, expense.SplitType, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.queryRow(ctx, s.db,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.loadSplits(ctx,
		"SELECT "+splitColumns+" FROM splits WHERE expense_id = ? ORDER BY position", expenseID)
	if err != nil {
		return nil, err
	}
	expense.Splits = splits[expense.ID]
	return expense, nil
}

// UpdateExpense rewrites an expense and replaces its splits wholesale.
// The creation time and group are never changed.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx,
			"UPDATE expenses SET description = ?, amount = ?, paid_by = ?, split_type = ? WHERE id = ?",
			expense.Description, expense.Amount, expense.PaidBy, expense.SplitType, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM splits WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete old splits: %w", err)
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

// DeleteExpense removes an expense; its splits cascade.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	return s.deleteByID(ctx, s.db, "expenses", expenseID)
}

// ListExpenses returns a group's expenses, newest first, with splits loaded.
func (s *Store) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	// Splits are loaded in one pass once the expense rows are closed, so a
	// single-connection pool never holds two result sets.
	splits, err := s.loadSplits(ctx,
		`SELECT `+splitColumns+` FROM splits
		 WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = ?)
		 ORDER BY expense_id, position`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		expense.Splits = splits[expense.ID]
	}
	return expenses, nil
}

const splitColumns = "id, expense_id, member_id, amount, split_type, percentage"

func (s *Store) insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Splits {
		split := &expense.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = expense.ID
		if split.SplitType == "" {
			split.SplitType = expense.SplitType
		}

		_, err := s.exec(ctx, tx,
			"INSERT INTO splits ("+splitColumns+", position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			split.ID, split.ExpenseID, split.MemberID, split.Amount, split.SplitType, split.Percentage, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// loadSplits runs a split query and groups the rows by expense ID.
func (s *Store) loadSplits(ctx context.Context, query string, args ...any) (map[string][]models.Split, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	byExpense := make(map[string][]models.Split)
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ID, &split.ExpenseID, &split.MemberID, &split.Amount,
			&split.SplitType, &split.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		byExpense[split.ExpenseID] = append(byExpense[split.ExpenseID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return byExpense, nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	expense := &models.Expense{}
	if err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
		&expense.PaidBy, &expense.SplitType, &expense.CreatedAt); err != nil {
		return nil, err
	}
	return expense, nil
}
