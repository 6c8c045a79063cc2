package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sortd/sortd/internal/model"
)

// SaveMove records one committed move for auditing.
func (s *SQLiteStorage) SaveMove(ctx context.Context, op model.MoveOp, contentHash string, committedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO move_history (source, target, content_hash, committed_at) VALUES (?, ?, ?, ?)`,
		op.Source, op.Target, contentHash, committedAt)
	if err != nil {
		return fmt.Errorf("failed to save move history: %w", err)
	}
	return nil
}

// ListMoves returns the most recent moves, newest first.
func (s *SQLiteStorage) ListMoves(ctx context.Context, limit int) ([]model.MoveOp, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, target FROM move_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query move history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []model.MoveOp
	for rows.Next() {
		var op model.MoveOp
		if err := rows.Scan(&op.Source, &op.Target); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}
