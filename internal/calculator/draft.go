package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/money"
)

// Draft is the state of an expense being entered or edited. It keeps the
// allocated splits in sync with the inputs the way the entry form does:
// changing the total, the strategy, a member's inclusion or a member's shares
// recomputes the splits; editing a manual amount never does.
//
// A Draft is not safe for concurrent use.
type Draft struct {
	amount    decimal.Decimal
	amountSet bool
	paidBy    string
	strategy  Strategy
	members   []MemberInput
	splits    []MemberSplit
	err       error
}

// Submission is a finalized draft, ready to be persisted.
type Submission struct {
	Amount   decimal.Decimal
	PaidBy   string
	Strategy Strategy
	Splits   []MemberSplit
}

// NewDraft starts a draft over the given roster. Every member starts included
// with one share. The payer defaults to actorID when the actor is on the roster.
func NewDraft(memberIDs []string, actorID string) *Draft {
	d := &Draft{
		strategy: StrategyEqual,
		members:  make([]MemberInput, len(memberIDs)),
	}
	one := decimal.NewFromInt(1)
	for i, id := range memberIDs {
		shares := one
		d.members[i] = MemberInput{MemberID: id, Included: true, Shares: &shares}
		if id == actorID {
			d.paidBy = actorID
		}
	}
	return d
}

// SetAmount parses the total and recomputes the splits.
func (d *Draft) SetAmount(text string) error {
	amount, err := money.Parse(text)
	if err != nil {
		return err
	}
	d.amount = amount
	d.amountSet = true
	d.recompute()
	return nil
}

// SetPaidBy sets the payer.
func (d *Draft) SetPaidBy(memberID string) error {
	if _, ok := d.find(memberID); !ok {
		return fmt.Errorf("payer %q is not a member of the group", memberID)
	}
	d.paidBy = memberID
	return nil
}

// SetStrategy switches the split strategy and recomputes. Switching to custom
// seeds every unset manual amount with the amount currently shown.
func (d *Draft) SetStrategy(strategy Strategy) error {
	if _, err := AllocatorFor(strategy); err != nil {
		return err
	}
	if strategy == StrategyCustom && len(d.splits) == len(d.members) {
		for i := range d.members {
			if d.members[i].ManualAmount == nil {
				amount := d.splits[i].Amount
				d.members[i].ManualAmount = &amount
			}
		}
	}
	d.strategy = strategy
	d.recompute()
	return nil
}

// SetIncluded toggles a member in or out of the split and recomputes.
func (d *Draft) SetIncluded(memberID string, included bool) error {
	i, ok := d.find(memberID)
	if !ok {
		return fmt.Errorf("unknown member %q", memberID)
	}
	d.members[i].Included = included
	d.recompute()
	return nil
}

// SetShares sets a member's weight, includes the member and recomputes.
func (d *Draft) SetShares(memberID string, shares decimal.Decimal) error {
	if shares.IsNegative() {
		return ErrInvalidWeight
	}
	i, ok := d.find(memberID)
	if !ok {
		return fmt.Errorf("unknown member %q", memberID)
	}
	d.members[i].Shares = &shares
	d.members[i].Included = true
	d.recompute()
	return nil
}

// SetManualAmount records an operator-entered amount and includes the member.
// Under the custom strategy the member's split takes the amount directly;
// nothing else is recomputed.
func (d *Draft) SetManualAmount(memberID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	i, ok := d.find(memberID)
	if !ok {
		return fmt.Errorf("unknown member %q", memberID)
	}
	d.members[i].ManualAmount = &amount
	d.members[i].Included = true

	if d.strategy == StrategyCustom && len(d.splits) == len(d.members) {
		d.splits[i].Amount = amount
		d.splits[i].Included = true
	}
	return nil
}

// Strategy returns the current strategy.
func (d *Draft) Strategy() Strategy { return d.strategy }

// PaidBy returns the current payer, empty when unset.
func (d *Draft) PaidBy() string { return d.paidBy }

// Err returns the error from the last recompute, if it failed. A failed
// recompute leaves the previous splits in place.
func (d *Draft) Err() error { return d.err }

// Splits returns a copy of the current splits.
func (d *Draft) Splits() []MemberSplit {
	out := make([]MemberSplit, len(d.splits))
	copy(out, d.splits)
	return out
}

// Finalize validates the draft and returns what should be persisted.
func (d *Draft) Finalize() (*Submission, error) {
	if !d.amountSet {
		return nil, ErrInvalidAmount
	}
	if d.paidBy == "" {
		return nil, ErrMissingPayer
	}
	if d.err != nil {
		return nil, d.err
	}
	if len(d.splits) != len(d.members) {
		d.recompute()
		if d.err != nil {
			return nil, d.err
		}
	}
	if err := ValidateSplits(d.amount, d.splits); err != nil {
		return nil, err
	}
	return &Submission{
		Amount:   d.amount,
		PaidBy:   d.paidBy,
		Strategy: d.strategy,
		Splits:   d.Splits(),
	}, nil
}

func (d *Draft) recompute() {
	if !d.amountSet {
		return
	}
	splits, err := AllocateSplits(d.amount, d.strategy, d.members)
	if err != nil {
		d.err = err
		return
	}
	d.splits = splits
	d.err = nil
}

func (d *Draft) find(memberID string) (int, bool) {
	for i, m := range d.members {
		if m.MemberID == memberID {
			return i, true
		}
	}
	return -1, false
}
