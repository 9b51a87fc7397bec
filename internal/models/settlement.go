package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string

	// ToMemberID is the member who received payment (creditor being paid).
	ToMemberID string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp (milliseconds) when the settlement was recorded.
	CreatedAt int64

	// CreatedBy identifies who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
