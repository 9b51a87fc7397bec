package calculator

import (
	"errors"

	"github.com/mmynk/groupsplit/internal/money"
)

var (
	// ErrInvalidAmount is returned when a total is not a finite positive number,
	// or when a split amount is negative.
	ErrInvalidAmount = money.ErrInvalidAmount

	ErrInvalidWeight    = errors.New("share weight cannot be negative")
	ErrEmptyIncludedSet = errors.New("at least one member must be included in the split")
	ErrSplitMismatch    = errors.New("split amounts do not add up to the expense total")
	ErrUnknownStrategy  = errors.New("unknown split strategy")
	ErrMissingPayer     = errors.New("expense must have a payer")
)
