// Package models defines the persisted entities of a group ledger.
//
// A Group owns its Members, Expenses and Settlements. Entities refer to each
// other by ID strings rather than pointers, and every ID is a UUID assigned by
// the store.
//
// Money is carried as decimal.Decimal with two places. Timestamps are Unix
// milliseconds.
//
// Expenses keep their resolved splits in the same row shape the split
// allocator produces: member, amount, split type and an optional percentage
// (set only by the shares strategy, so the weights can be rebuilt on edit).
package models
