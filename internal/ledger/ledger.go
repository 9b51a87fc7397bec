// Package ledger settles a group described in a YAML file without a database.
//
//	members:
//	  - id: alice
//	    name: Alice
//	  - id: bob
//	expenses:
//	  - description: Dinner
//	    amount: "90"
//	    paid_by: alice
//	    split: shares
//	    members:
//	      - {id: alice, shares: 2}
//	      - {id: bob}
//	settlements:
//	  - {from: bob, to: alice, amount: "10"}
//
// Expenses without a members list are split across the whole roster. When a
// list is given, roster members missing from it are excluded.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/money"
)

// File is a parsed ledger.
type File struct {
	Members     []Member     `yaml:"members"`
	Expenses    []Expense    `yaml:"expenses"`
	Settlements []Settlement `yaml:"settlements,omitempty"`
}

// Member is one person on the ledger roster.
type Member struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

// Expense is one payment and how it is split. With no member rows every
// roster member is included.
type Expense struct {
	Description string        `yaml:"description,omitempty"`
	Amount      string        `yaml:"amount"`
	PaidBy      string        `yaml:"paid_by"`
	Split       string        `yaml:"split,omitempty"` // equal (default), custom, shares
	Members     []SplitMember `yaml:"members,omitempty"`
}

// SplitMember is one member's row of an expense.
type SplitMember struct {
	ID       string `yaml:"id"`
	Included *bool  `yaml:"included,omitempty"`
	Shares   string `yaml:"shares,omitempty"`
	Amount   string `yaml:"amount,omitempty"`
}

// Settlement is a recorded payment from one member to another.
type Settlement struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
}

// Result is a settled ledger.
type Result struct {
	Members   []Member
	Expenses  []AllocatedExpense
	Positions []calculator.MemberBalance
	Balances  []calculator.Balance
}

// AllocatedExpense is an expense with its computed splits.
type AllocatedExpense struct {
	Expense
	Total  decimal.Decimal
	Splits []calculator.MemberSplit
}

// Load reads a ledger file from disk.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a ledger. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}
	return &file, nil
}

// Settle allocates every expense and computes net positions and the
// settlement plan.
func (f *File) Settle() (*Result, error) {
	roster, index, err := f.roster()
	if err != nil {
		return nil, err
	}

	res := &Result{Members: f.Members}
	inputs := make([]calculator.Expense, 0, len(f.Expenses)+len(f.Settlements))

	for i, e := range f.Expenses {
		allocated, err := allocate(e, index)
		if err != nil {
			return nil, fmt.Errorf("expense %d (%s): %w", i+1, e.label(), err)
		}
		res.Expenses = append(res.Expenses, *allocated)

		splits := make([]calculator.Split, len(allocated.Splits))
		for j, s := range allocated.Splits {
			splits[j] = calculator.Split{MemberID: s.MemberID, Amount: s.Amount}
		}
		inputs = append(inputs, calculator.Expense{
			ID:      fmt.Sprintf("expense-%d", i+1),
			Amount:  allocated.Total,
			PayerID: e.PaidBy,
			Splits:  splits,
		})
	}

	for i, s := range f.Settlements {
		amount, err := settlementAmount(s, index)
		if err != nil {
			return nil, fmt.Errorf("settlement %d: %w", i+1, err)
		}
		inputs = append(inputs, calculator.Expense{
			ID:      fmt.Sprintf("settlement-%d", i+1),
			Amount:  amount,
			PayerID: s.From,
			Splits:  []calculator.Split{{MemberID: s.To, Amount: amount}},
		})
	}

	res.Positions = calculator.NetPositions(inputs, roster)
	res.Balances = calculator.ComputeBalances(inputs, roster)
	return res, nil
}

// Name returns a member's display name, falling back to the id.
func (r *Result) Name(id string) string {
	for _, m := range r.Members {
		if m.ID == id && m.Name != "" {
			return m.Name
		}
	}
	return id
}

func (f *File) roster() ([]calculator.Member, map[string]int, error) {
	if len(f.Members) == 0 {
		return nil, nil, errors.New("ledger has no members")
	}
	roster := make([]calculator.Member, len(f.Members))
	index := make(map[string]int, len(f.Members))
	for i, m := range f.Members {
		if m.ID == "" {
			return nil, nil, fmt.Errorf("member %d has no id", i+1)
		}
		if _, dup := index[m.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate member %q", m.ID)
		}
		index[m.ID] = i
		roster[i] = calculator.Member{ID: m.ID, Name: m.Name}
	}
	return roster, index, nil
}

func allocate(e Expense, index map[string]int) (*AllocatedExpense, error) {
	total, err := money.Parse(e.Amount)
	if err != nil {
		return nil, err
	}
	if e.PaidBy == "" {
		return nil, calculator.ErrMissingPayer
	}
	if _, ok := index[e.PaidBy]; !ok {
		return nil, fmt.Errorf("payer %q is not a member", e.PaidBy)
	}

	strategy := calculator.StrategyEqual
	if e.Split != "" {
		if strategy, err = calculator.ParseStrategy(strings.ToLower(e.Split)); err != nil {
			return nil, err
		}
	}

	inputs, err := memberInputs(e.Members, index)
	if err != nil {
		return nil, err
	}
	splits, err := calculator.AllocateSplits(total, strategy, inputs)
	if err != nil {
		return nil, err
	}
	if err := calculator.ValidateSplits(total, splits); err != nil {
		return nil, err
	}
	return &AllocatedExpense{Expense: e, Total: total, Splits: splits}, nil
}

// memberInputs lays the expense rows over the roster, in roster order.
func memberInputs(rows []SplitMember, index map[string]int) ([]calculator.MemberInput, error) {
	inputs := make([]calculator.MemberInput, len(index))
	for id, i := range index {
		inputs[i] = calculator.MemberInput{MemberID: id, Included: len(rows) == 0}
	}

	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			return nil, fmt.Errorf("split member %q is not a member", row.ID)
		}
		in := &inputs[i]
		in.Included = row.Included == nil || *row.Included

		if row.Shares != "" {
			shares, err := money.ParseNonNegative(row.Shares)
			if err != nil {
				return nil, fmt.Errorf("%w: shares for %s", calculator.ErrInvalidWeight, row.ID)
			}
			in.Shares = &shares
		}
		if row.Amount != "" {
			amount, err := money.ParseNonNegative(row.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: amount for %s", calculator.ErrInvalidAmount, row.ID)
			}
			in.ManualAmount = &amount
		}
	}
	return inputs, nil
}

func settlementAmount(s Settlement, index map[string]int) (decimal.Decimal, error) {
	for _, id := range []string{s.From, s.To} {
		if _, ok := index[id]; !ok {
			return decimal.Zero, fmt.Errorf("%q is not a member", id)
		}
	}
	if s.From == s.To {
		return decimal.Zero, errors.New("cannot settle with yourself")
	}
	amount, err := money.Parse(s.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Round2(amount), nil
}

func (e Expense) label() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Amount
}
