package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGroup(t *testing.T, store *Store, names ...string) (*models.Group, []*models.Member) {
	t.Helper()
	ctx := context.Background()

	group := &models.Group{Name: "Ski Trip", Emoji: "⛷", Currency: "EUR", CreatedBy: "tester"}
	require.NoError(t, store.CreateGroup(ctx, group))

	members := make([]*models.Member, len(names))
	for i, name := range names {
		members[i] = &models.Member{GroupID: group.ID, FullName: name}
		require.NoError(t, store.AddMember(ctx, members[i]))
	}
	return group, members
}

func TestStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	runStoreTests(t, ctx, store)
}

func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("GROUPSPLIT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GROUPSPLIT_TEST_DATABASE_URL not set")
	}
	store, err := New(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runStoreTests(t, context.Background(), store)
}

func runStoreTests(t *testing.T, ctx context.Context, store *Store) {
	t.Run("CreateGroup generates ID and timestamp", func(t *testing.T) {
		group := &models.Group{Name: "Roommates"}
		require.NoError(t, store.CreateGroup(ctx, group))

		assert.NotEmpty(t, group.ID)
		assert.NotZero(t, group.CreatedAt)

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, group, got)
	})

	t.Run("UpdateGroup and ListGroups", func(t *testing.T) {
		group, _ := seedGroup(t, store)
		group.Name = "Ski Trip 2026"
		group.Currency = "CHF"
		require.NoError(t, store.UpdateGroup(ctx, group))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ski Trip 2026", got.Name)
		assert.Equal(t, "CHF", got.Currency)

		groups, err := store.ListGroups(ctx)
		require.NoError(t, err)
		var ids []string
		for _, g := range groups {
			ids = append(ids, g.ID)
		}
		assert.Contains(t, ids, group.ID)

		err = store.UpdateGroup(ctx, &models.Group{ID: "missing", Name: "x"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing rows report ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetMember(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetExpense(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetSettlement(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.ErrorIs(t, store.DeleteGroup(ctx, "nonexistent"), storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteExpense(ctx, "nonexistent"), storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteSettlement(ctx, "nonexistent"), storage.ErrNotFound)
		assert.ErrorIs(t, store.RemoveMember(ctx, "nonexistent"), storage.ErrNotFound)
	})

	t.Run("ListMembers keeps roster order", func(t *testing.T) {
		group, members := seedGroup(t, store, "Zoe", "Adam", "Mia")

		got, err := store.ListMembers(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Zoe", got[0].FullName)
		assert.Equal(t, "Adam", got[1].FullName)
		assert.Equal(t, "Mia", got[2].FullName)
		assert.Empty(t, got[1].Email)

		withEmail := &models.Member{GroupID: group.ID, FullName: "Eve", Email: "eve@example.com"}
		require.NoError(t, store.AddMember(ctx, withEmail))
		fetched, err := store.GetMember(ctx, withEmail.ID)
		require.NoError(t, err)
		assert.Equal(t, "eve@example.com", fetched.Email)

		require.NoError(t, store.RemoveMember(ctx, members[0].ID))
		got, err = store.ListMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, "Adam", got[0].FullName)
	})

	t.Run("expense round trip keeps split rows", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob", "Carol")

		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Groceries",
			Amount:      decimal.RequireFromString("100.00"),
			PaidBy:      m[0].ID,
			SplitType:   "shares",
			Splits: []models.Split{
				{MemberID: m[0].ID, Amount: decimal.RequireFromString("25.00"), Percentage: decimal.NewNullDecimal(decimal.RequireFromString("25.00"))},
				{MemberID: m[1].ID, Amount: decimal.RequireFromString("25.00"), Percentage: decimal.NewNullDecimal(decimal.RequireFromString("25.00"))},
				{MemberID: m[2].ID, Amount: decimal.RequireFromString("50.00"), Percentage: decimal.NewNullDecimal(decimal.RequireFromString("50.00"))},
			},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		assert.NotEmpty(t, expense.ID)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Description)
		assert.True(t, got.Amount.Equal(expense.Amount))
		assert.Equal(t, m[0].ID, got.PaidBy)
		require.Len(t, got.Splits, 3)
		for i, split := range got.Splits {
			assert.Equal(t, expense.Splits[i].MemberID, split.MemberID)
			assert.True(t, split.Amount.Equal(expense.Splits[i].Amount), "split %d: %s", i, split.Amount)
			assert.Equal(t, "shares", split.SplitType)
			assert.True(t, split.Percentage.Valid)
			assert.Equal(t, expense.ID, split.ExpenseID)
		}
	})

	t.Run("UpdateExpense replaces splits wholesale", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob")

		expense := &models.Expense{
			GroupID:   group.ID,
			Amount:    decimal.RequireFromString("10.00"),
			PaidBy:    m[0].ID,
			SplitType: "equal",
			Splits: []models.Split{
				{MemberID: m[0].ID, Amount: decimal.RequireFromString("5.00")},
				{MemberID: m[1].ID, Amount: decimal.RequireFromString("5.00")},
			},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		createdAt := expense.CreatedAt

		expense.Amount = decimal.RequireFromString("12.00")
		expense.SplitType = "custom"
		expense.PaidBy = m[1].ID
		expense.Splits = []models.Split{
			{MemberID: m[0].ID, Amount: decimal.RequireFromString("12.00")},
		}
		require.NoError(t, store.UpdateExpense(ctx, expense))

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "custom", got.SplitType)
		assert.Equal(t, m[1].ID, got.PaidBy)
		assert.Equal(t, createdAt, got.CreatedAt)
		require.Len(t, got.Splits, 1)
		assert.False(t, got.Splits[0].Percentage.Valid)
		assert.True(t, got.Splits[0].Amount.Equal(decimal.RequireFromString("12")))

		missing := &models.Expense{ID: "missing", Amount: decimal.NewFromInt(1), PaidBy: m[0].ID, SplitType: "equal"}
		assert.ErrorIs(t, store.UpdateExpense(ctx, missing), storage.ErrNotFound)
	})

	t.Run("ListExpenses newest first with splits", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob")

		for i, ts := range []int64{1000, 3000, 2000} {
			expense := &models.Expense{
				GroupID:   group.ID,
				Amount:    decimal.NewFromInt(int64(i + 1)),
				PaidBy:    m[0].ID,
				SplitType: "custom",
				CreatedAt: ts,
				Splits:    []models.Split{{MemberID: m[1].ID, Amount: decimal.NewFromInt(int64(i + 1))}},
			}
			require.NoError(t, store.CreateExpense(ctx, expense))
		}

		expenses, err := store.ListExpenses(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, expenses, 3)
		assert.Equal(t, int64(3000), expenses[0].CreatedAt)
		assert.Equal(t, int64(2000), expenses[1].CreatedAt)
		assert.Equal(t, int64(1000), expenses[2].CreatedAt)
		for _, e := range expenses {
			require.Len(t, e.Splits, 1)
			assert.True(t, e.Splits[0].Amount.Equal(e.Amount))
		}

		empty, _ := seedGroup(t, store)
		expenses, err = store.ListExpenses(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})

	t.Run("settlements", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob")

		settlement := &models.Settlement{
			GroupID:      group.ID,
			FromMemberID: m[1].ID,
			ToMemberID:   m[0].ID,
			Amount:       decimal.RequireFromString("15.50"),
			CreatedBy:    "Bob",
			Note:         "cash",
		}
		require.NoError(t, store.CreateSettlement(ctx, settlement))

		got, err := store.GetSettlement(ctx, settlement.ID)
		require.NoError(t, err)
		assert.Equal(t, "cash", got.Note)
		assert.True(t, got.Amount.Equal(settlement.Amount))

		noNote := &models.Settlement{GroupID: group.ID, FromMemberID: m[0].ID, ToMemberID: m[1].ID, Amount: decimal.NewFromInt(1)}
		require.NoError(t, store.CreateSettlement(ctx, noNote))

		list, err := store.ListSettlements(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		require.NoError(t, store.DeleteSettlement(ctx, settlement.ID))
		list, err = store.ListSettlements(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Note)
	})

	t.Run("member with expenses cannot be removed", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob")
		expense := &models.Expense{
			GroupID:   group.ID,
			Amount:    decimal.NewFromInt(4),
			PaidBy:    m[0].ID,
			SplitType: "equal",
			Splits:    []models.Split{{MemberID: m[1].ID, Amount: decimal.NewFromInt(4)}},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))

		assert.Error(t, store.RemoveMember(ctx, m[1].ID))
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		group, m := seedGroup(t, store, "Alice", "Bob")
		expense := &models.Expense{
			GroupID:   group.ID,
			Amount:    decimal.NewFromInt(8),
			PaidBy:    m[0].ID,
			SplitType: "equal",
			Splits: []models.Split{
				{MemberID: m[0].ID, Amount: decimal.NewFromInt(4)},
				{MemberID: m[1].ID, Amount: decimal.NewFromInt(4)},
			},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		require.NoError(t, store.CreateSettlement(ctx, &models.Settlement{
			GroupID: group.ID, FromMemberID: m[1].ID, ToMemberID: m[0].ID, Amount: decimal.NewFromInt(4),
		}))

		require.NoError(t, store.DeleteGroup(ctx, group.ID))

		_, err := store.GetExpense(ctx, expense.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		members, err := store.ListMembers(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestParseDriver(t *testing.T) {
	tests := map[string]Driver{
		"":           DriverSQLite,
		"sqlite":     DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		" pg ":       DriverPostgres,
	}
	for in, want := range tests {
		got, err := ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDriver("mysql")
	assert.Error(t, err)
}
