package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/service"
)

// lockRetryDelay paces flock acquisition attempts.
const lockRetryDelay = 50 * time.Millisecond

// UndoStore persists the single most-recent undo log as one JSON file,
// overwritten per commit.
type UndoStore struct {
	path string
}

var _ service.UndoStore = (*UndoStore)(nil)

// NewUndoStore creates a store for the undo log at path.
func NewUndoStore(path string) *UndoStore {
	return &UndoStore{path: path}
}

// WriteUndoLog replaces any prior log with the given one.
func (u *UndoStore) WriteUndoLog(ctx context.Context, log model.UndoLog) error {
	lock := flock.New(u.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("failed to lock undo log: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.MkdirAll(filepath.Dir(u.path), 0o750); err != nil {
		return fmt.Errorf("failed to create undo log directory: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode undo log: %w", err)
	}
	if err := os.WriteFile(u.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write undo log: %w", err)
	}
	return nil
}

// ReadUndoLog returns the current log, or nil when none exists.
func (u *UndoStore) ReadUndoLog(_ context.Context) (*model.UndoLog, error) {
	data, err := os.ReadFile(u.path) //nolint:gosec // configured data path
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read undo log: %w", err)
	}

	var log model.UndoLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse undo log: %w", err)
	}
	return &log, nil
}

// ClearUndoLog removes the log file. Clearing an absent log is not an
// error.
func (u *UndoStore) ClearUndoLog(_ context.Context) error {
	if err := os.Remove(u.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear undo log: %w", err)
	}
	return nil
}
