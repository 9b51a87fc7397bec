package models

import "github.com/shopspring/decimal"

// Expense is a single payment made by one member on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is free text (e.g., "Groceries").
	Description string

	// Amount is the expense total. Always positive.
	Amount decimal.Decimal

	// PaidBy is the ID of the member who paid.
	PaidBy string

	// SplitType is the strategy used to allocate the splits: equal, custom or shares.
	SplitType string

	// CreatedAt is the Unix timestamp (milliseconds) when the expense was recorded.
	CreatedAt int64

	// Splits is what each member owes. For equal and shares expenses they sum
	// to Amount exactly; custom splits are within one cent.
	Splits []Split
}

// Split is one member's owed portion of an expense.
type Split struct {
	ID        string
	ExpenseID string
	MemberID  string
	Amount    decimal.Decimal
	SplitType string

	// Percentage is only set for shares expenses.
	Percentage decimal.NullDecimal
}
