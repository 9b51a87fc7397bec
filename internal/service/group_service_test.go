package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/metrics"
	"github.com/mmynk/groupsplit/internal/storage/sqlstore"
	"github.com/mmynk/groupsplit/pkg/api"
	"github.com/mmynk/groupsplit/pkg/api/apiconnect"
)

type testServer struct {
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	events   *events.Recorder
}

// setupTestServer creates a test server with both services over a temp SQLite database
func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	recorder := &events.Recorder{}
	opts := []Option{WithMetrics(metrics.New()), WithPublisher(recorder)}

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, opts...))
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store, opts...))

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)

	server := httptest.NewServer(mux)

	ts := &testServer{
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		events:   recorder,
	}

	cleanup := func() {
		server.Close()
		store.Close()
	}

	return ts, cleanup
}

// createGroup creates a group and returns the member IDs by name.
func (ts *testServer) createGroup(t *testing.T, names ...string) (string, map[string]string) {
	t.Helper()

	resp, err := ts.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:        "Roommates",
		MemberNames: names,
	}))
	require.NoError(t, err)

	ids := make(map[string]string, len(resp.Msg.Members))
	for _, m := range resp.Msg.Members {
		ids[m.FullName] = m.ID
	}
	return resp.Msg.Group.ID, ids
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestCreateGroup(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := ts.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:        "  Roommates ",
		Emoji:       "🏠",
		Currency:    "eur",
		CreatedBy:   "alice@example.com",
		MemberNames: []string{"Alice", "Bob", " ", "Charlie"},
	}))
	require.NoError(t, err)

	group := resp.Msg.Group
	require.NotNil(t, group)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, "EUR", group.Currency)
	assert.NotZero(t, group.CreatedAt)

	require.Len(t, resp.Msg.Members, 3)
	for i, name := range []string{"Alice", "Bob", "Charlie"} {
		assert.Equal(t, name, resp.Msg.Members[i].FullName)
		assert.Equal(t, group.ID, resp.Msg.Members[i].GroupID)
	}
}

func TestCreateGroup_RequiresName(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := ts.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{Name: "  "}))
	assertCode(t, connect.CodeInvalidArgument, err)
}

func TestGetGroup(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	groupID, _ := ts.createGroup(t, "Alice", "Bob")

	resp, err := ts.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, groupID, resp.Msg.Group.ID)
	require.Len(t, resp.Msg.Members, 2)
	assert.Equal(t, "Alice", resp.Msg.Members[0].FullName)
	assert.Equal(t, "Bob", resp.Msg.Members[1].FullName)

	_, err = ts.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{GroupID: "missing"}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = ts.groups.GetGroup(context.Background(), connect.NewRequest(&api.GetGroupRequest{}))
	assertCode(t, connect.CodeInvalidArgument, err)
}

func TestListGroups(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := ts.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Groups)

	ts.createGroup(t, "Alice")
	ts.createGroup(t, "Bob")

	resp, err = ts.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Groups, 2)
}

func TestUpdateGroup(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	groupID, _ := ts.createGroup(t, "Alice")

	resp, err := ts.groups.UpdateGroup(context.Background(), connect.NewRequest(&api.UpdateGroupRequest{
		GroupID:  groupID,
		Name:     "Flatmates",
		Currency: "usd",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Flatmates", resp.Msg.Group.Name)
	assert.Equal(t, "USD", resp.Msg.Group.Currency)
	assert.NotZero(t, resp.Msg.Group.CreatedAt)

	_, err = ts.groups.UpdateGroup(context.Background(), connect.NewRequest(&api.UpdateGroupRequest{
		GroupID: "missing",
		Name:    "Nope",
	}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestDeleteGroup(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	groupID, ids := ts.createGroup(t, "Alice", "Bob")
	_, err := ts.expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		GroupID: groupID,
		Amount:  "20",
		PaidBy:  ids["Alice"],
	}))
	require.NoError(t, err)

	_, err = ts.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
	require.NoError(t, err)

	_, err = ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = ts.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestAddAndRemoveMember(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	groupID, _ := ts.createGroup(t, "Alice")

	added, err := ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{
		GroupID:  groupID,
		FullName: "Dana",
		Email:    "dana@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Dana", added.Msg.Member.FullName)
	assert.Equal(t, "dana@example.com", added.Msg.Member.Email)

	list, err := ts.groups.ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Members, 2)
	assert.Equal(t, "Dana", list.Msg.Members[1].FullName)

	_, err = ts.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{MemberID: added.Msg.Member.ID}))
	require.NoError(t, err)

	list, err = ts.groups.ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Len(t, list.Msg.Members, 1)

	_, err = ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupID: "missing", FullName: "Eve"}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupID: groupID}))
	assertCode(t, connect.CodeInvalidArgument, err)
}

func TestRemoveMember_InUse(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	groupID, ids := ts.createGroup(t, "Alice", "Bob", "Charlie")
	_, err := ts.expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		GroupID: groupID,
		Amount:  "30",
		PaidBy:  ids["Alice"],
		Members: []*api.MemberSplitInput{{MemberID: ids["Alice"]}, {MemberID: ids["Bob"]}},
	}))
	require.NoError(t, err)

	// Charlie has a zero split row, which still counts
	for _, name := range []string{"Alice", "Bob", "Charlie"} {
		_, err = ts.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{MemberID: ids[name]}))
		assertCode(t, connect.CodeFailedPrecondition, err)
	}

	_, err = ts.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{MemberID: "missing"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestGetGroupBalances(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	groupID, ids := ts.createGroup(t, "Alice", "Bob", "Charlie")
	alice, bob, charlie := ids["Alice"], ids["Bob"], ids["Charlie"]

	// No expenses yet
	resp, err := ts.groups.GetGroupBalances(ctx, connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Balances)
	require.Len(t, resp.Msg.MemberBalances, 3)

	_, err = ts.expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Groceries",
		Amount:      "90",
		PaidBy:      alice,
	}))
	require.NoError(t, err)

	_, err = ts.expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Taxi",
		Amount:      "30",
		PaidBy:      bob,
		Members: []*api.MemberSplitInput{
			{MemberID: bob},
			{MemberID: charlie},
		},
	}))
	require.NoError(t, err)

	resp, err = ts.groups.GetGroupBalances(ctx, connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)

	assert.Equal(t, []*api.Balance{
		{From: charlie, To: alice, Amount: "45.00"},
		{From: bob, To: alice, Amount: "15.00"},
	}, resp.Msg.Balances)

	require.Len(t, resp.Msg.MemberBalances, 3)
	want := []api.MemberBalance{
		{MemberID: alice, FullName: "Alice", TotalPaid: "90.00", TotalOwed: "30.00", Net: "60.00"},
		{MemberID: bob, FullName: "Bob", TotalPaid: "30.00", TotalOwed: "45.00", Net: "-15.00"},
		{MemberID: charlie, FullName: "Charlie", TotalPaid: "0.00", TotalOwed: "45.00", Net: "-45.00"},
	}
	for i, mb := range resp.Msg.MemberBalances {
		assert.Equal(t, want[i], *mb)
	}

	// Settling the plan brings everyone back to zero
	for _, b := range resp.Msg.Balances {
		_, err = ts.expenses.RecordSettlement(ctx, connect.NewRequest(&api.RecordSettlementRequest{
			GroupID:      groupID,
			FromMemberID: b.From,
			ToMemberID:   b.To,
			Amount:       b.Amount,
		}))
		require.NoError(t, err)
	}

	resp, err = ts.groups.GetGroupBalances(ctx, connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Balances)
	for _, mb := range resp.Msg.MemberBalances {
		assert.Equal(t, "0.00", mb.Net, "member %s", mb.FullName)
	}
}

func TestGetGroupBalances_NotFound(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := ts.groups.GetGroupBalances(context.Background(), connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: "missing"}))
	assertCode(t, connect.CodeNotFound, err)
}
