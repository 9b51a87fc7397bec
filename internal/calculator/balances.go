package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/money"
)

// Member is a group member as seen by the balance engine.
type Member struct {
	ID   string
	Name string
}

// Split is one member's owed share of an expense.
type Split struct {
	MemberID string
	Amount   decimal.Decimal
}

// Expense is an expense with its resolved splits.
type Expense struct {
	ID      string
	Amount  decimal.Decimal
	PayerID string
	Splits  []Split
}

// Balance is a single directed transfer: From owes To exactly Amount.
type Balance struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// MemberBalance is one member's position across all expenses.
type MemberBalance struct {
	MemberID  string
	TotalPaid decimal.Decimal
	TotalOwed decimal.Decimal
	Net       decimal.Decimal // Positive = owed money, negative = owes money
}

// NetPositions computes every member's net position.
//
// Roster members come first, in roster order, each starting at zero. Payers or
// split members missing from the roster are appended in the order they are
// first seen.
func NetPositions(expenses []Expense, members []Member) []MemberBalance {
	positions := make([]MemberBalance, 0, len(members))
	index := make(map[string]int, len(members))

	lookup := func(id string) *MemberBalance {
		i, ok := index[id]
		if !ok {
			i = len(positions)
			index[id] = i
			positions = append(positions, MemberBalance{MemberID: id})
		}
		return &positions[i]
	}

	for _, m := range members {
		lookup(m.ID)
	}

	for _, e := range expenses {
		payer := lookup(e.PayerID)
		payer.TotalPaid = payer.TotalPaid.Add(e.Amount)

		for _, s := range e.Splits {
			p := lookup(s.MemberID)
			p.TotalOwed = p.TotalOwed.Add(s.Amount)
		}
	}

	for i := range positions {
		positions[i].Net = positions[i].TotalPaid.Sub(positions[i].TotalOwed)
	}
	return positions
}

// ComputeBalances returns the transfers that settle every net position.
//
// Net positions are sorted ascending and walked from both ends: the largest
// debtor pays the largest creditor as much as both can absorb, and whichever
// side reaches zero moves inward. This greedy pass emits at most N-1 transfers
// for N non-zero members but is not a minimum-transfer solver.
//
// The result is in emission order. It is empty, never nil, when there is
// nothing to settle.
func ComputeBalances(expenses []Expense, members []Member) []Balance {
	balances := []Balance{}
	if len(members) == 0 {
		return balances
	}

	entries := NetPositions(expenses, members)
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Net.LessThan(entries[b].Net)
	})

	i, j := 0, len(entries)-1
	for i < j {
		debtor, creditor := &entries[i], &entries[j]

		if money.NearZero(debtor.Net) || creditor.Net.LessThan(money.Tolerance) {
			if money.NearZero(debtor.Net) {
				i++
			}
			if creditor.Net.LessThan(money.Tolerance) {
				j--
			}
			continue
		}

		amount := decimal.Min(debtor.Net.Abs(), creditor.Net)
		if amount.GreaterThan(money.Tolerance) {
			balances = append(balances, Balance{
				From:   debtor.MemberID,
				To:     creditor.MemberID,
				Amount: money.Round2(amount),
			})
		}

		debtor.Net = debtor.Net.Add(amount)
		creditor.Net = creditor.Net.Sub(amount)

		if money.NearZero(debtor.Net) {
			i++
		}
		if creditor.Net.LessThan(money.Tolerance) {
			j--
		}
	}

	return balances
}
