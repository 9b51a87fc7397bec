// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/groupsplit/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	GroupStore
	MemberStore
	ExpenseStore
	SettlementStore

	// Close releases any resources held by the store.
	Close() error
}

// GroupStore persists groups.
type GroupStore interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated by the
	// store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by its ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns every group, newest first.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup updates name, emoji and currency.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group along with its members, expenses and settlements.
	DeleteGroup(ctx context.Context, groupID string) error
}

// MemberStore persists group members.
type MemberStore interface {
	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// ListMembers returns the roster in the order members were added.
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)

	RemoveMember(ctx context.Context, memberID string) error
}

// ExpenseStore persists expenses together with their splits.
type ExpenseStore interface {
	// CreateExpense writes the expense and all of its splits in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense rewrites the expense row and replaces its splits wholesale.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpenses returns a group's expenses, newest first, with splits loaded.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)
}

// SettlementStore persists recorded payments between members.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)
	DeleteSettlement(ctx context.Context, settlementID string) error
}
