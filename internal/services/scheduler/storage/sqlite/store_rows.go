package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

// UpsertParticipantSlotRow writes the materialized status row for one
// (slot, participant) pair, last write wins.
func (s *Store) UpsertParticipantSlotRow(ctx context.Context, row storage.ParticipantSlotRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	row.SlotID = strings.TrimSpace(row.SlotID)
	if row.SlotID == "" {
		return fmt.Errorf("slot id is required")
	}
	row.ParticipantID = strings.TrimSpace(row.ParticipantID)
	if row.ParticipantID == "" {
		return fmt.Errorf("participant id is required")
	}
	if strings.TrimSpace(row.Status) == "" {
		return fmt.Errorf("status is required")
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO participant_slot_rows (slot_id, participant_id, role, booking_id, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (slot_id, participant_id) DO UPDATE SET
		     role = excluded.role,
		     booking_id = excluded.booking_id,
		     status = excluded.status,
		     updated_at = excluded.updated_at`,
		row.SlotID,
		row.ParticipantID,
		row.Role,
		row.BookingID,
		row.Status,
		toMillis(row.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert participant slot row: %w", err)
	}
	return nil
}

// ListSlotsByParticipant returns all status rows for a participant ordered by
// slot id.
func (s *Store) ListSlotsByParticipant(ctx context.Context, participantID string) ([]storage.ParticipantSlotRow, error) {
	return s.listParticipantSlotRows(ctx, participantID, "")
}

// ListSlotsByParticipantAndStatus returns the participant's rows filtered to
// one status.
func (s *Store) ListSlotsByParticipantAndStatus(ctx context.Context, participantID, status string) ([]storage.ParticipantSlotRow, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fmt.Errorf("status is required")
	}
	return s.listParticipantSlotRows(ctx, participantID, status)
}

func (s *Store) listParticipantSlotRows(ctx context.Context, participantID, status string) ([]storage.ParticipantSlotRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("participant id is required")
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT slot_id, participant_id, role, booking_id, status, updated_at
			 FROM participant_slot_rows
			 WHERE participant_id = ?
			 ORDER BY slot_id ASC`,
			participantID,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT slot_id, participant_id, role, booking_id, status, updated_at
			 FROM participant_slot_rows
			 WHERE participant_id = ? AND status = ?
			 ORDER BY slot_id ASC`,
			participantID,
			status,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list participant slot rows: %w", err)
	}
	defer rows.Close()

	results := make([]storage.ParticipantSlotRow, 0)
	for rows.Next() {
		var (
			row             storage.ParticipantSlotRow
			updatedAtMillis int64
		)
		if err := rows.Scan(
			&row.SlotID,
			&row.ParticipantID,
			&row.Role,
			&row.BookingID,
			&row.Status,
			&updatedAtMillis,
		); err != nil {
			return nil, fmt.Errorf("scan participant slot row: %w", err)
		}
		row.UpdatedAt = fromMillis(updatedAtMillis)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant slot rows: %w", err)
	}
	return results, nil
}
