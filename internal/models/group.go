package models

// Group is a set of people sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Emoji is an optional icon shown next to the name.
	Emoji string

	// Currency is a display code (e.g., "USD"). It is never used for conversion.
	Currency string

	// CreatedBy is the member-facing identifier of whoever created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp (milliseconds) when the group was created.
	CreatedAt int64
}

// Member is a person in a group. Members are scoped to their group; the same
// person in two groups is two members.
type Member struct {
	ID      string
	GroupID string

	// FullName is the display name.
	FullName string

	// Email is optional.
	Email string

	CreatedAt int64
}
