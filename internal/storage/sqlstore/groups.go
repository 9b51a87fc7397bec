package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

const groupColumns = "id, name, emoji, currency, created_by, created_at"

// CreateGroup persists a new group to the database.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = nowMillis()
	}

	_, err := s.exec(ctx, s.db,
		"INSERT INTO groups ("+groupColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Emoji, group.Currency, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.queryRow(ctx, s.db,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroups returns all groups, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+groupColumns+" FROM groups ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates a group's name, emoji and currency.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.exec(ctx, s.db,
		"UPDATE groups SET name = ?, emoji = ?, currency = ? WHERE id = ?",
		group.Name, group.Emoji, group.Currency, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a group. Members, expenses, splits and settlements
// cascade with it.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	return s.deleteByID(ctx, s.db, "groups", groupID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.Group, error) {
	group := &models.Group{}
	if err := row.Scan(&group.ID, &group.Name, &group.Emoji, &group.Currency,
		&group.CreatedBy, &group.CreatedAt); err != nil {
		return nil, err
	}
	return group, nil
}
