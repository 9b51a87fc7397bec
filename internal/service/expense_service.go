package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
	"github.com/mmynk/groupsplit/internal/storage"
	"github.com/mmynk/groupsplit/pkg/api"
	"github.com/mmynk/groupsplit/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService: split previews,
// expenses and recorded settlements.
type ExpenseService struct {
	deps
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store, opts ...Option) *ExpenseService {
	return &ExpenseService{deps: newDeps(store, opts)}
}

// AllocateSplits previews the split of an amount without persisting anything.
// Custom amounts that do not add up are reported through Mismatch rather than
// as an error, so a form can show the difference while it is being edited.
func (s *ExpenseService) AllocateSplits(ctx context.Context, req *connect.Request[api.AllocateSplitsRequest]) (*connect.Response[api.AllocateSplitsResponse], error) {
	slog.InfoContext(ctx, "AllocateSplits request received",
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
		"members_count", len(req.Msg.Members),
	)

	strategy, err := parseStrategy(req.Msg.SplitType)
	if err != nil {
		return nil, toConnectError(err)
	}
	total, err := money.Parse(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	inputs, err := memberInputs(req.Msg.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	splits, err := calculator.AllocateSplits(total, strategy, inputs)
	s.metrics.ObserveAllocation(string(strategy), err)
	if err != nil {
		slog.WarnContext(ctx, "AllocateSplits failed", "split_type", strategy, "error", err)
		return nil, toConnectError(err)
	}

	amounts := make([]decimal.Decimal, len(splits))
	out := make([]*api.AllocatedSplit, len(splits))
	for i, split := range splits {
		amounts[i] = split.Amount
		out[i] = toAPIAllocatedSplit(split)
	}
	sum := money.Sum(amounts...)

	resp := &api.AllocateSplitsResponse{
		Splits: out,
		Sum:    money.Format(sum),
	}
	if err := calculator.ValidateSplits(total, splits); err != nil {
		if !errors.Is(err, calculator.ErrSplitMismatch) {
			return nil, toConnectError(err)
		}
		resp.Mismatch = money.Format(sum.Sub(total))
	}

	return connect.NewResponse(resp), nil
}

// CreateExpense allocates and persists a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.InfoContext(ctx, "CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		slog.ErrorContext(ctx, "CreateExpense failed - group not found", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	members, err := s.store.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	paidBy := req.Msg.PaidBy
	if paidBy == "" {
		paidBy = req.Msg.ActorID
	}
	sub, err := s.buildSubmission(members, submissionInput{
		amount:    req.Msg.Amount,
		splitType: req.Msg.SplitType,
		actorID:   req.Msg.ActorID,
		paidBy:    paidBy,
		members:   req.Msg.Members,
	})
	if err != nil {
		slog.WarnContext(ctx, "CreateExpense rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		GroupID:     req.Msg.GroupID,
		Description: strings.TrimSpace(req.Msg.Description),
		Amount:      sub.Amount,
		PaidBy:      sub.PaidBy,
		SplitType:   string(sub.Strategy),
		Splits:      toModelSplits(sub.Splits),
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"amount", money.Format(expense.Amount),
		"splits_count", len(expense.Splits),
	)
	s.publish(ctx, events.New(events.ExpenseCreated, expense.GroupID, expense.ID, money.Format(expense.Amount)))

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpense retrieves an expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.InfoContext(ctx, "GetExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := requireID("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.ErrorContext(ctx, "GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense re-allocates an existing expense and replaces its splits.
// When no member rows are given the stored splits are reused as inputs.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.InfoContext(ctx, "UpdateExpense request received",
		"expense_id", req.Msg.ExpenseID,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	if err := requireID("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}

	existing, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.ErrorContext(ctx, "UpdateExpense failed - expense not found", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}
	members, err := s.store.ListMembers(ctx, existing.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	in := submissionInput{
		amount:    req.Msg.Amount,
		splitType: req.Msg.SplitType,
		paidBy:    req.Msg.PaidBy,
		members:   req.Msg.Members,
	}
	if in.splitType == "" {
		in.splitType = existing.SplitType
	}
	if in.paidBy == "" {
		in.paidBy = existing.PaidBy
	}
	if len(in.members) == 0 {
		in.members = inputsFromSplits(existing)
	}

	sub, err := s.buildSubmission(members, in)
	if err != nil {
		slog.WarnContext(ctx, "UpdateExpense rejected", "expense_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}

	existing.Description = strings.TrimSpace(req.Msg.Description)
	existing.Amount = sub.Amount
	existing.PaidBy = sub.PaidBy
	existing.SplitType = string(sub.Strategy)
	existing.Splits = toModelSplits(sub.Splits)

	if err := s.store.UpdateExpense(ctx, existing); err != nil {
		slog.ErrorContext(ctx, "UpdateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	// Fetch updated expense to get split IDs
	updated, err := s.store.GetExpense(ctx, existing.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch updated expense", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Expense updated", "expense_id", updated.ID, "group_id", updated.GroupID)
	s.publish(ctx, events.New(events.ExpenseUpdated, updated.GroupID, updated.ID, money.Format(updated.Amount)))

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(updated)}), nil
}

// DeleteExpense removes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.InfoContext(ctx, "DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := requireID("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.ErrorContext(ctx, "DeleteExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", expense.ID)
	s.publish(ctx, events.New(events.ExpenseDeleted, expense.GroupID, expense.ID, money.Format(expense.Amount)))

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.InfoContext(ctx, "ListExpenses request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		slog.ErrorContext(ctx, "ListExpenses failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}

	slog.InfoContext(ctx, "ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// RecordSettlement records a payment from one member to another.
func (s *ExpenseService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	slog.InfoContext(ctx, "RecordSettlement request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.FromMemberID,
		"to", req.Msg.ToMemberID,
		"amount", req.Msg.Amount,
	)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if err := requireID("from_member_id", req.Msg.FromMemberID); err != nil {
		return nil, toConnectError(err)
	}
	if err := requireID("to_member_id", req.Msg.ToMemberID); err != nil {
		return nil, toConnectError(err)
	}
	if req.Msg.FromMemberID == req.Msg.ToMemberID {
		return nil, toConnectError(invalidArgf("cannot settle with yourself"))
	}
	amount, err := money.Parse(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	members, err := s.store.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	roster := memberSet(members)
	for _, id := range []string{req.Msg.FromMemberID, req.Msg.ToMemberID} {
		if !roster[id] {
			return nil, toConnectError(invalidArgf("member %s is not in group %s", id, req.Msg.GroupID))
		}
	}

	settlement := &models.Settlement{
		GroupID:      req.Msg.GroupID,
		FromMemberID: req.Msg.FromMemberID,
		ToMemberID:   req.Msg.ToMemberID,
		Amount:       money.Round2(amount),
		CreatedBy:    req.Msg.CreatedBy,
		Note:         strings.TrimSpace(req.Msg.Note),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.ErrorContext(ctx, "RecordSettlement failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Settlement recorded", "settlement_id", settlement.ID, "group_id", settlement.GroupID)
	s.publish(ctx, events.New(events.SettlementRecorded, settlement.GroupID, settlement.ID, money.Format(settlement.Amount)))

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns a group's recorded settlements.
func (s *ExpenseService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	slog.InfoContext(ctx, "ListSettlements request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	settlements, err := s.store.ListSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		slog.ErrorContext(ctx, "ListSettlements failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a recorded settlement.
func (s *ExpenseService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	slog.InfoContext(ctx, "DeleteSettlement request received", "settlement_id", req.Msg.SettlementID)

	if err := requireID("settlement_id", req.Msg.SettlementID); err != nil {
		return nil, toConnectError(err)
	}

	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteSettlement(ctx, settlement.ID); err != nil {
		slog.ErrorContext(ctx, "DeleteSettlement failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Settlement deleted", "settlement_id", settlement.ID)
	s.publish(ctx, events.New(events.SettlementDeleted, settlement.GroupID, settlement.ID, money.Format(settlement.Amount)))

	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}

type submissionInput struct {
	amount    string
	splitType string
	actorID   string
	paidBy    string
	members   []*api.MemberSplitInput
}

// buildSubmission drives a draft over the group's roster the way the entry
// form would and finalizes it.
func (s *ExpenseService) buildSubmission(roster []*models.Member, in submissionInput) (*calculator.Submission, error) {
	strategy, err := parseStrategy(in.splitType)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(roster))
	for i, m := range roster {
		ids[i] = m.ID
	}
	known := memberSet(roster)

	d := calculator.NewDraft(ids, in.actorID)
	if err := d.SetStrategy(strategy); err != nil {
		return nil, err
	}
	if in.paidBy != "" {
		if !known[in.paidBy] {
			return nil, invalidArgf("payer %s is not a member of the group", in.paidBy)
		}
		if err := d.SetPaidBy(in.paidBy); err != nil {
			return nil, err
		}
	}

	if len(in.members) > 0 {
		listed := make(map[string]*api.MemberSplitInput, len(in.members))
		for _, m := range in.members {
			if m == nil {
				continue
			}
			if !known[m.MemberID] {
				return nil, invalidArgf("member %s is not in the group", m.MemberID)
			}
			listed[m.MemberID] = m
		}

		for _, id := range ids {
			m, ok := listed[id]
			if !ok || (m.Included != nil && !*m.Included) {
				if err := d.SetIncluded(id, false); err != nil {
					return nil, err
				}
				continue
			}
			if err := applyInput(d, strategy, m); err != nil {
				return nil, err
			}
		}
	}

	if err := d.SetAmount(in.amount); err != nil {
		return nil, err
	}
	sub, err := d.Finalize()
	s.metrics.ObserveAllocation(string(strategy), err)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func applyInput(d *calculator.Draft, strategy calculator.Strategy, m *api.MemberSplitInput) error {
	switch strategy {
	case calculator.StrategyShares:
		if m.Shares == "" {
			return nil
		}
		shares, err := money.ParseNonNegative(m.Shares)
		if err != nil {
			return invalidArgf("shares for %s: %q is not a number", m.MemberID, m.Shares)
		}
		return d.SetShares(m.MemberID, shares)
	case calculator.StrategyCustom:
		amount := decimal.Zero
		if m.Amount != "" {
			var err error
			if amount, err = money.ParseNonNegative(m.Amount); err != nil {
				return invalidArgf("amount for %s: %q is not a valid amount", m.MemberID, m.Amount)
			}
		}
		return d.SetManualAmount(m.MemberID, amount)
	}
	return nil
}

// memberInputs converts preview rows into allocator inputs.
func memberInputs(rows []*api.MemberSplitInput) ([]calculator.MemberInput, error) {
	if len(rows) == 0 {
		return nil, calculator.ErrEmptyIncludedSet
	}
	inputs := make([]calculator.MemberInput, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.MemberID == "" {
			return nil, invalidArgf("member_id required")
		}
		in := calculator.MemberInput{MemberID: row.MemberID, Included: row.Included == nil || *row.Included}

		if row.Shares != "" {
			shares, err := money.ParseNonNegative(row.Shares)
			if err != nil {
				return nil, invalidArgf("shares for %s: %q is not a number", row.MemberID, row.Shares)
			}
			in.Shares = &shares
		}
		if row.Amount != "" {
			amount, err := money.ParseNonNegative(row.Amount)
			if err != nil {
				return nil, invalidArgf("amount for %s: %q is not a valid amount", row.MemberID, row.Amount)
			}
			in.ManualAmount = &amount
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// inputsFromSplits rebuilds form rows from persisted splits. Shares splits
// carry their percentage, which works as the weight.
func inputsFromSplits(e *models.Expense) []*api.MemberSplitInput {
	rows := make([]*api.MemberSplitInput, 0, len(e.Splits))
	for _, split := range e.Splits {
		row := &api.MemberSplitInput{
			MemberID: split.MemberID,
			Amount:   money.Format(split.Amount),
		}
		included := split.Amount.IsPositive()
		if split.Percentage.Valid {
			row.Shares = split.Percentage.Decimal.String()
			included = split.Percentage.Decimal.IsPositive()
		}
		row.Included = &included
		rows = append(rows, row)
	}
	return rows
}

func toAPIAllocatedSplit(split calculator.MemberSplit) *api.AllocatedSplit {
	out := &api.AllocatedSplit{
		Split: api.Split{
			MemberID:  split.MemberID,
			Amount:    money.Format(split.Amount),
			SplitType: string(split.SplitType),
		},
		Included: split.Included,
		Shares:   split.Shares.String(),
	}
	if split.Percentage.Valid {
		out.Percentage = money.Format(split.Percentage.Decimal)
	}
	return out
}

func parseStrategy(s string) (calculator.Strategy, error) {
	if s == "" {
		return calculator.StrategyEqual, nil
	}
	return calculator.ParseStrategy(strings.ToLower(s))
}

func memberSet(members []*models.Member) map[string]bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m.ID] = true
	}
	return set
}
