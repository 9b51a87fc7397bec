package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/money"
)

// Strategy is the rule used to derive per-member amounts from an expense total.
type Strategy string

const (
	StrategyEqual  Strategy = "equal"
	StrategyCustom Strategy = "custom"
	StrategyShares Strategy = "shares"
)

// ParseStrategy maps a wire/storage tag to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyEqual, StrategyCustom, StrategyShares:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// MemberInput is one member's row in the expense entry form.
type MemberInput struct {
	MemberID string
	Included bool

	// Shares is the weight used by the shares strategy. Nil means 1.
	Shares *decimal.Decimal

	// ManualAmount is the operator-entered amount used by the custom strategy.
	// Nil means 0.
	ManualAmount *decimal.Decimal
}

// MemberSplit is the allocated amount for one member. Its shape matches the
// persisted split row (member, amount, split type, nullable percentage).
type MemberSplit struct {
	MemberID  string
	Amount    decimal.Decimal
	SplitType Strategy

	// Percentage is only set by the shares strategy, so the shares can be
	// reconstructed when the expense is edited.
	Percentage decimal.NullDecimal

	Included bool
	Shares   decimal.Decimal
}

// Allocator computes per-member amounts for one strategy.
type Allocator interface {
	Strategy() Strategy
	Allocate(total decimal.Decimal, members []MemberInput) ([]MemberSplit, error)
}

// AllocatorFor returns the allocator implementing the given strategy.
func AllocatorFor(strategy Strategy) (Allocator, error) {
	switch strategy {
	case StrategyEqual:
		return equalAllocator{}, nil
	case StrategyCustom:
		return customAllocator{}, nil
	case StrategyShares:
		return sharesAllocator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// AllocateSplits converts a total and a strategy into one amount per member.
// For the equal and shares strategies the amounts always sum to total exactly;
// custom amounts are taken as entered and must be checked with ValidateSplits.
func AllocateSplits(total decimal.Decimal, strategy Strategy, members []MemberInput) ([]MemberSplit, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}
	alloc, err := AllocatorFor(strategy)
	if err != nil {
		return nil, err
	}
	return alloc.Allocate(total, members)
}

// ValidateSplits checks that splits are non-negative and sum to total within
// one cent.
func ValidateSplits(total decimal.Decimal, splits []MemberSplit) error {
	sum := decimal.Zero
	for _, s := range splits {
		if s.Amount.IsNegative() {
			return fmt.Errorf("%w: split for %s is %s", ErrInvalidAmount, s.MemberID, money.Format(s.Amount))
		}
		sum = sum.Add(s.Amount)
	}
	if !money.Matches(sum, total) {
		return fmt.Errorf("%w: splits sum to %s, total is %s", ErrSplitMismatch, money.Format(sum), money.Format(total))
	}
	return nil
}

type equalAllocator struct{}

func (equalAllocator) Strategy() Strategy { return StrategyEqual }

// Allocate gives every included member round2(total/count); the last included
// member absorbs the rounding remainder.
func (equalAllocator) Allocate(total decimal.Decimal, members []MemberInput) ([]MemberSplit, error) {
	last := -1
	count := 0
	for i, m := range members {
		if m.Included {
			count++
			last = i
		}
	}
	if count == 0 {
		return nil, ErrEmptyIncludedSet
	}

	perHead := money.Round2(total.Div(decimal.NewFromInt(int64(count))))
	amounts := make([]decimal.Decimal, len(members))
	for i, m := range members {
		if m.Included {
			amounts[i] = perHead
		}
	}
	absorbRemainder(total, amounts, last)

	splits := make([]MemberSplit, len(members))
	for i, m := range members {
		splits[i] = MemberSplit{
			MemberID:  m.MemberID,
			Amount:    amounts[i],
			SplitType: StrategyEqual,
			Included:  m.Included,
			Shares:    weightOf(m),
		}
	}
	return splits, nil
}

type customAllocator struct{}

func (customAllocator) Strategy() Strategy { return StrategyCustom }

// Allocate copies the manual amounts. Nothing is recomputed. An excluded
// member owes nothing whatever amount was entered for them.
func (customAllocator) Allocate(_ decimal.Decimal, members []MemberInput) ([]MemberSplit, error) {
	splits := make([]MemberSplit, len(members))
	for i, m := range members {
		amount := decimal.Zero
		if m.ManualAmount != nil {
			amount = *m.ManualAmount
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: manual amount for %s is %s", ErrInvalidAmount, m.MemberID, amount)
		}
		if !m.Included {
			amount = decimal.Zero
		}
		splits[i] = MemberSplit{
			MemberID:  m.MemberID,
			Amount:    amount,
			SplitType: StrategyCustom,
			Included:  m.Included,
			Shares:    weightOf(m),
		}
	}
	return splits, nil
}

type sharesAllocator struct{}

func (sharesAllocator) Strategy() Strategy { return StrategyShares }

// Allocate gives each member round2(total * shares / totalShares). Excluded
// members weigh nothing. The last member with a non-zero weight absorbs the
// rounding remainder so the amounts sum to total.
func (sharesAllocator) Allocate(total decimal.Decimal, members []MemberInput) ([]MemberSplit, error) {
	weights := make([]decimal.Decimal, len(members))
	totalShares := decimal.Zero
	last := -1
	for i, m := range members {
		w := weightOf(m)
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: %s has %s shares", ErrInvalidWeight, m.MemberID, w)
		}
		if !m.Included {
			w = decimal.Zero
		}
		if w.IsPositive() {
			last = i
		}
		weights[i] = w
		totalShares = totalShares.Add(w)
	}
	if last < 0 {
		return nil, ErrEmptyIncludedSet
	}

	amounts := make([]decimal.Decimal, len(members))
	for i, w := range weights {
		amounts[i] = money.Round2(total.Mul(w).Div(totalShares))
	}
	absorbRemainder(total, amounts, last)

	hundred := decimal.NewFromInt(100)
	splits := make([]MemberSplit, len(members))
	for i, m := range members {
		w := weights[i]
		splits[i] = MemberSplit{
			MemberID:   m.MemberID,
			Amount:     amounts[i],
			SplitType:  StrategyShares,
			Percentage: decimal.NewNullDecimal(money.Round2(w.Mul(hundred).Div(totalShares))),
			Included:   w.IsPositive(),
			Shares:     w,
		}
	}
	return splits, nil
}

// absorbRemainder sets amounts[last] to whatever the other amounts leave of
// total. When earlier round-ups leave less than nothing, amounts[last] becomes
// zero and the deficit is taken back a cent at a time from the members before
// it, walking backwards.
func absorbRemainder(total decimal.Decimal, amounts []decimal.Decimal, last int) {
	allocated := decimal.Zero
	for i, a := range amounts {
		if i != last {
			allocated = allocated.Add(a)
		}
	}
	amounts[last] = total.Sub(allocated)
	if !amounts[last].IsNegative() {
		return
	}

	deficit := amounts[last].Neg()
	amounts[last] = decimal.Zero
	cent := decimal.New(1, -2)
	for deficit.IsPositive() {
		taken := false
		for i := last - 1; i >= 0 && deficit.IsPositive(); i-- {
			step := decimal.Min(cent, deficit)
			if amounts[i].LessThan(step) {
				continue
			}
			amounts[i] = amounts[i].Sub(step)
			deficit = deficit.Sub(step)
			taken = true
		}
		if !taken {
			return
		}
	}
}

// weightOf returns the member's share weight, defaulting to 1.
func weightOf(m MemberInput) decimal.Decimal {
	if m.Shares == nil {
		return decimal.NewFromInt(1)
	}
	return *m.Shares
}
