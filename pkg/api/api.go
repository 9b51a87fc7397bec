// Package api defines the wire messages of the groupsplit.v1 services.
//
// Messages are plain structs encoded as JSON with lowerCamelCase field names.
// Money always travels as a decimal string ("12.50"), never as a JSON number.
// Timestamps are Unix milliseconds.
package api

// Group is a set of people sharing expenses.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji,omitempty"`
	Currency  string `json:"currency,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Member is a person in a group.
type Member struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	FullName  string `json:"fullName"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Split is one member's owed portion of an expense.
type Split struct {
	MemberID  string `json:"memberId"`
	Amount    string `json:"amount"`
	SplitType string `json:"splitType"`

	// Percentage is only set for shares splits.
	Percentage string `json:"percentage,omitempty"`
}

// Expense is a payment made by one member on behalf of the group.
type Expense struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"groupId"`
	Description string  `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	PaidBy      string  `json:"paidBy"`
	SplitType   string  `json:"splitType"`
	CreatedAt   int64   `json:"createdAt"`
	Splits      []Split `json:"splits"`
}

// MemberSplitInput is one member's row of the expense form.
type MemberSplitInput struct {
	MemberID string `json:"memberId"`

	// Included defaults to true when omitted.
	Included *bool `json:"included,omitempty"`

	// Shares is the weight for the shares strategy ("1" when omitted).
	Shares string `json:"shares,omitempty"`

	// Amount is the manual amount for the custom strategy ("0" when omitted).
	Amount string `json:"amount,omitempty"`
}

// AllocatedSplit is a split preview, echoing the member's inputs.
type AllocatedSplit struct {
	Split
	Included bool   `json:"included"`
	Shares   string `json:"shares"`
}

// Balance is a settlement transfer: From owes To exactly Amount.
type Balance struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// MemberBalance is one member's position across a group's ledger.
type MemberBalance struct {
	MemberID  string `json:"memberId"`
	FullName  string `json:"fullName,omitempty"`
	TotalPaid string `json:"totalPaid"`
	TotalOwed string `json:"totalOwed"`
	Net       string `json:"net"`
}

// Settlement is a recorded payment between two members.
type Settlement struct {
	ID           string `json:"id"`
	GroupID      string `json:"groupId"`
	FromMemberID string `json:"fromMemberId"`
	ToMemberID   string `json:"toMemberId"`
	Amount       string `json:"amount"`
	CreatedAt    int64  `json:"createdAt"`
	CreatedBy    string `json:"createdBy,omitempty"`
	Note         string `json:"note,omitempty"`
}

// GroupService

type CreateGroupRequest struct {
	Name      string `json:"name"`
	Emoji     string `json:"emoji,omitempty"`
	Currency  string `json:"currency,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`

	// MemberNames seeds the roster, in order.
	MemberNames []string `json:"memberNames,omitempty"`
}

type CreateGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID  string `json:"groupId"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID  string `json:"groupId"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type RemoveMemberRequest struct {
	MemberID string `json:"memberId"`
}

type RemoveMemberResponse struct{}

type ListMembersRequest struct {
	GroupID string `json:"groupId"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupBalancesResponse struct {
	// Balances is the settlement plan in emission order.
	Balances       []*Balance       `json:"balances"`
	MemberBalances []*MemberBalance `json:"memberBalances"`
}

// ExpenseService

type AllocateSplitsRequest struct {
	Amount    string              `json:"amount"`
	SplitType string              `json:"splitType"`
	Members   []*MemberSplitInput `json:"members"`
}

type AllocateSplitsResponse struct {
	Splits []*AllocatedSplit `json:"splits"`

	// Sum is the total of the allocated amounts.
	Sum string `json:"sum"`

	// Mismatch is set when custom amounts do not add up to the total.
	Mismatch string `json:"mismatch,omitempty"`
}

type CreateExpenseRequest struct {
	GroupID     string `json:"groupId"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`

	// PaidBy defaults to ActorID when empty.
	PaidBy  string `json:"paidBy,omitempty"`
	ActorID string `json:"actorId,omitempty"`

	// SplitType defaults to equal.
	SplitType string `json:"splitType,omitempty"`

	// Members overrides the roster defaults (everyone included, one share).
	// Roster members left out are excluded.
	Members []*MemberSplitInput `json:"members,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID   string              `json:"expenseId"`
	Description string              `json:"description,omitempty"`
	Amount      string              `json:"amount"`
	PaidBy      string              `json:"paidBy,omitempty"`
	SplitType   string              `json:"splitType,omitempty"`
	Members     []*MemberSplitInput `json:"members,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type RecordSettlementRequest struct {
	GroupID      string `json:"groupId"`
	FromMemberID string `json:"fromMemberId"`
	ToMemberID   string `json:"toMemberId"`
	Amount       string `json:"amount"`
	CreatedBy    string `json:"createdBy,omitempty"`
	Note         string `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type DeleteSettlementResponse struct{}
