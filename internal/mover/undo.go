package mover

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"

	"github.com/sortd/sortd/internal/common"
)

// Undo replays the most recent commit's inverse operations in order.
// Entries whose moved file is gone are skipped and reported. Restored
// files re-enter staging as Pending so the user can re-route them. The
// log is cleared even on partial failure: a stale log that no longer
// matches the filesystem is worse than no log.
func (c *Committer) Undo(ctx context.Context) (Result, error) {
	log, err := c.undo.ReadUndoLog(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading undo log: %w", err)
	}
	if log.Empty() {
		return Result{}, fmt.Errorf("nothing to undo: %w", common.ErrNotFound)
	}

	defer func() {
		if err := c.undo.ClearUndoLog(ctx); err != nil {
			slog.Warn("Failed to clear undo log", "error", err)
		}
	}()

	var result Result
	restoredAny := false
	for _, op := range log.Operations {
		name := filepath.Base(op.Source)
		fr := FileResult{Name: name, Source: op.Target, Target: op.Source}

		if _, err := c.fs.Stat(ctx, op.Target); err != nil {
			fr.Error = fmt.Sprintf("moved file no longer present at %s", op.Target)
			result.addFailure(fr)
			slog.Warn("Skipping undo entry", "target", op.Target, "error", err)
			continue
		}

		if err := c.fs.Move(ctx, op.Target, op.Source); err != nil {
			fr.Error = fmt.Sprintf("restore failed: %v", err)
			result.addFailure(fr)
			continue
		}

		fr.OK = true
		result.addSuccess(fr)
		restoredAny = true
		c.forgetEntry(ctx, op.Target)
		c.readmit(ctx, op.Source, name)
	}

	if restoredAny {
		if err := c.meta.Save(ctx); err != nil {
			slog.Error("Failed to persist metadata after undo", "error", err)
		}
	}
	return result, nil
}

// forgetEntry drops the committed-index entry for an undone move so a
// re-run does not flag the restored file as a duplicate of itself.
func (c *Committer) forgetEntry(ctx context.Context, committedPath string) {
	for hash, entry := range c.meta.Entries() {
		if entry.CurrentPath == committedPath {
			if err := c.meta.RemoveEntry(ctx, hash); err != nil {
				slog.Warn("Failed to drop index entry", "hash", hash, "error", err)
			}
			return
		}
	}
}

func (c *Committer) readmit(ctx context.Context, sourcePath, name string) {
	var size int64
	if info, err := c.fs.Stat(ctx, sourcePath); err == nil {
		size = info.Size()
	}
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if _, err := c.store.Add(sourcePath, name, mimeType, size); err != nil {
		slog.Warn("Failed to restage restored file", "path", sourcePath, "error", err)
	}
}
