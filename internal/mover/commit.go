// Package mover turns approved staging proposals into real file moves
// and maintains the undo log that can reverse the most recent commit.
package mover

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/service"
	"github.com/sortd/sortd/internal/staging"
)

// FileResult reports the outcome of one attempted move.
type FileResult struct {
	ID     string
	Name   string
	Source string
	Target string
	Error  string
	OK     bool
}

// Result summarizes a commit or undo run.
type Result struct {
	Results      []FileResult
	SuccessCount int
	FailCount    int
}

// Committer executes batch commits against the real filesystem and
// records enough state to undo the latest one.
type Committer struct {
	store   *staging.Store
	fs      service.FileSystem
	meta    service.MetadataStore
	undo    service.UndoStore
	history service.HistoryStore
	rootDir string
}

// NewCommitter wires a commit engine. rootDir is the organized tree's
// base directory; target paths are category paths relative to it.
func NewCommitter(store *staging.Store, fs service.FileSystem, meta service.MetadataStore, undo service.UndoStore, history service.HistoryStore, rootDir string) (*Committer, error) {
	if rootDir == "" {
		return nil, common.ErrNoRootDir
	}
	return &Committer{
		store:   store,
		fs:      fs,
		meta:    meta,
		undo:    undo,
		history: history,
		rootDir: rootDir,
	}, nil
}

// Commit moves every eligible staged file to its final target. An
// empty id list commits all staged files. Each move is independent: a
// failed move leaves that file staged for retry and never blocks the
// rest of the batch.
func (c *Committer) Commit(ctx context.Context, ids []string) (Result, error) {
	if len(ids) == 0 {
		for _, f := range c.store.List() {
			ids = append(ids, f.ID)
		}
	}
	if len(ids) == 0 {
		return Result{}, common.ErrNoStagedFiles
	}

	if err := c.store.SetWorkflow(staging.WorkflowExecuting); err != nil {
		return Result{}, err
	}

	var result Result
	committedAt := time.Now()
	var undoOps []model.MoveOp
	var undoHashes []string
	type moved struct {
		file   *model.StagedFile
		target string
	}
	var movedFiles []moved

	for _, id := range ids {
		f, err := c.store.Get(id)
		if err != nil {
			result.addFailure(FileResult{ID: id, Error: "unknown staged file"})
			continue
		}
		if !eligible(f) {
			continue
		}

		target, reason := c.resolveTarget(f)
		if reason != "" {
			result.addFailure(FileResult{ID: f.ID, Name: f.DisplayName, Source: f.SourcePath, Error: reason})
			continue
		}

		fr := FileResult{ID: f.ID, Name: f.DisplayName, Source: f.SourcePath, Target: target}
		if sameLocation(f.SourcePath, target) {
			// Already in place. Counts as success but needs no move
			// and no undo entry.
			fr.OK = true
			result.addSuccess(fr)
			movedFiles = append(movedFiles, moved{file: f, target: target})
			continue
		}

		if err := c.fs.Move(ctx, f.SourcePath, target); err != nil {
			fr.Error = fmt.Sprintf("move failed: %v", err)
			result.addFailure(fr)
			slog.Warn("Move failed", "id", f.ID, "source", f.SourcePath, "target", target, "error", err)
			continue
		}

		fr.OK = true
		result.addSuccess(fr)
		movedFiles = append(movedFiles, moved{file: f, target: target})
		undoOps = append(undoOps, model.MoveOp{Source: f.SourcePath, Target: target})
		undoHashes = append(undoHashes, f.ContentHash)
	}

	for _, m := range movedFiles {
		if err := c.store.Remove(m.file.ID); err != nil {
			slog.Warn("Failed to unstage committed file", "id", m.file.ID, "error", err)
		}
		if err := c.meta.PutEntry(ctx, c.entryFor(m.file, m.target, committedAt)); err != nil {
			slog.Warn("Failed to index committed file", "id", m.file.ID, "error", err)
		}
	}

	if len(movedFiles) > 0 {
		if err := c.meta.Save(ctx); err != nil {
			slog.Error("Failed to persist metadata after commit", "error", err)
		}
	}
	if result.SuccessCount > 0 {
		// Each commit replaces the prior log, even when every move
		// was a no-op and there is nothing to reverse.
		log := model.UndoLog{Timestamp: committedAt, Operations: undoOps}
		if err := c.undo.WriteUndoLog(ctx, log); err != nil {
			slog.Error("Failed to write undo log", "error", err)
		}
		for i, op := range undoOps {
			if err := c.history.SaveMove(ctx, op, undoHashes[i], committedAt); err != nil {
				slog.Warn("Failed to record move history", "error", err)
			}
		}
	}

	next := staging.WorkflowDone
	if result.FailCount > 0 || len(c.store.List()) > 0 {
		// Partial commit stays reviewable.
		next = staging.WorkflowReviewing
	}
	if err := c.store.SetWorkflow(next); err != nil {
		slog.Warn("Workflow transition failed after commit", "target", next, "error", err)
	}
	return result, nil
}

func (c *Committer) resolveTarget(f *model.StagedFile) (string, string) {
	if f.SourcePath == "" {
		return "", "file has no source path"
	}
	// An empty category is the root of the organized tree, which is
	// where strict mode lands when no categories exist yet.
	category := model.NormalizePath(f.FinalTargetPath())
	return filepath.Join(c.rootDir, filepath.FromSlash(category), f.DisplayName), ""
}

func (c *Committer) entryFor(f *model.StagedFile, target string, committedAt time.Time) model.FileEntry {
	entry := model.FileEntry{
		ID:           f.ID,
		OriginalName: f.DisplayName,
		CurrentPath:  target,
		ContentHash:  f.ContentHash,
		Category:     model.NormalizePath(f.FinalTargetPath()),
		CommittedAt:  committedAt,
		UserOverride: f.UserEdit != nil && f.UserEdit.TargetPath != nil,
	}
	if f.Proposal != nil {
		entry.AISummary = f.Proposal.Summary
		entry.AITags = append([]string(nil), f.Proposal.Tags...)
		entry.AIConfidence = f.Proposal.Confidence
	}
	return entry
}

// eligible filters to committed-movable files: a reviewed Success that
// was not flagged as a duplicate.
func eligible(f *model.StagedFile) bool {
	if f.Status != model.StatusSuccess {
		return false
	}
	if f.Proposal == nil {
		return false
	}
	if f.Proposal.HasTag(model.TagExactDuplicate) || f.Proposal.HasTag(model.TagContentDuplicateRenamed) {
		return false
	}
	return true
}

func sameLocation(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func (r *Result) addSuccess(fr FileResult) {
	r.SuccessCount++
	r.Results = append(r.Results, fr)
}

func (r *Result) addFailure(fr FileResult) {
	r.FailCount++
	r.Results = append(r.Results, fr)
}
