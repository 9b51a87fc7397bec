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

const settlementColumns = "id, group_id, from_member_id, to_member_id, amount, created_at, created_by, note"

// CreateSettlement persists a new settlement to the database.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = nowMillis()
	}

	_, err := s.exec(ctx, s.db,
		"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		settlement.ID, settlement.GroupID, settlement.FromMemberID, settlement.ToMemberID,
		settlement.Amount, settlement.CreatedAt, settlement.CreatedBy, nullString(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.queryRow(ctx, s.db,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListSettlements retrieves all settlements for a group, newest first.
func (s *Store) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// DeleteSettlement removes a settlement by ID.
func (s *Store) DeleteSettlement(ctx context.Context, settlementID string) error {
	return s.deleteByID(ctx, s.db, "settlements", settlementID)
}

func scanSettlement(row scanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var note sql.NullString

	if err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromMemberID, &settlement.ToMemberID,
		&settlement.Amount, &settlement.CreatedAt, &settlement.CreatedBy, &note); err != nil {
		return nil, err
	}

	if note.Valid {
		settlement.Note = note.String
	}
	return settlement, nil
}
