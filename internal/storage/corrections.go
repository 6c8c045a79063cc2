package storage

import (
	"context"
	"fmt"

	"github.com/sortd/sortd/internal/model"
)

// SaveCorrection appends a correction record.
func (s *SQLiteStorage) SaveCorrection(ctx context.Context, rec model.CorrectionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (ai_suggested, user_chosen, file_name, created_at) VALUES (?, ?, ?, ?)`,
		rec.AISuggested, rec.UserChosen, rec.FileName, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save correction: %w", err)
	}
	return nil
}

// ListCorrections returns up to limit records in insertion order,
// keeping the newest when the log exceeds the limit.
func (s *SQLiteStorage) ListCorrections(ctx context.Context, limit int) ([]model.CorrectionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ai_suggested, user_chosen, file_name, created_at
		FROM (
			SELECT id, ai_suggested, user_chosen, file_name, created_at
			FROM corrections ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.CorrectionRecord
	for rows.Next() {
		var rec model.CorrectionRecord
		if err := rows.Scan(&rec.AISuggested, &rec.UserChosen, &rec.FileName, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneCorrections deletes all but the newest keep records.
func (s *SQLiteStorage) PruneCorrections(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM corrections WHERE id NOT IN (
			SELECT id FROM corrections ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune corrections: %w", err)
	}
	return nil
}
