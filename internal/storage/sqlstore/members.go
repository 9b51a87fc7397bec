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

const memberColumns = "id, group_id, full_name, email, created_at"

// AddMember appends a member to the end of the group's roster.
func (s *Store) AddMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = nowMillis()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var position int
		err := s.queryRow(ctx, tx,
			"SELECT COALESCE(MAX(position), 0) + 1 FROM members WHERE group_id = ?",
			member.GroupID,
		).Scan(&position)
		if err != nil {
			return fmt.Errorf("failed to compute member position: %w", err)
		}

		_, err = s.exec(ctx, tx,
			"INSERT INTO members (id, group_id, full_name, email, position, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			member.ID, member.GroupID, member.FullName, nullString(member.Email), position, member.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
		return nil
	})
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member, err := scanMember(s.queryRow(ctx, s.db,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns a group's roster in the order members were added.
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+memberColumns+" FROM members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// RemoveMember deletes a member. It fails while expenses, splits or
// settlements still reference the member.
func (s *Store) RemoveMember(ctx context.Context, memberID string) error {
	return s.deleteByID(ctx, s.db, "members", memberID)
}

func scanMember(row scanner) (*models.Member, error) {
	member := &models.Member{}
	var email sql.NullString
	if err := row.Scan(&member.ID, &member.GroupID, &member.FullName, &email, &member.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		member.Email = email.String
	}
	return member, nil
}
