package mover

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/fsops"
	"github.com/sortd/sortd/internal/metadata"
	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/staging"
)

type memHistory struct {
	moves []model.MoveOp
}

func (m *memHistory) SaveMove(_ context.Context, op model.MoveOp, _ string, _ time.Time) error {
	m.moves = append(m.moves, op)
	return nil
}

func (m *memHistory) ListMoves(_ context.Context, limit int) ([]model.MoveOp, error) {
	if limit > 0 && len(m.moves) > limit {
		return append([]model.MoveOp(nil), m.moves[len(m.moves)-limit:]...), nil
	}
	return append([]model.MoveOp(nil), m.moves...), nil
}

type testEnv struct {
	srcDir    string
	rootDir   string
	store     *staging.Store
	meta      *metadata.Store
	undo      *metadata.UndoStore
	history   *memHistory
	committer *Committer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	base := t.TempDir()
	srcDir := filepath.Join(base, "inbox")
	rootDir := filepath.Join(base, "organized")
	require.NoError(t, os.MkdirAll(srcDir, 0o750))
	require.NoError(t, os.MkdirAll(rootDir, 0o750))

	meta := metadata.NewStore(filepath.Join(base, "metadata.json"))
	require.NoError(t, meta.Load(ctx))

	store := staging.NewStore()
	history := &memHistory{}
	undo := metadata.NewUndoStore(filepath.Join(base, "undo.json"))
	committer, err := NewCommitter(store, fsops.New(), meta, undo, history, rootDir)
	require.NoError(t, err)

	return &testEnv{
		srcDir:    srcDir,
		rootDir:   rootDir,
		store:     store,
		meta:      meta,
		undo:      undo,
		history:   history,
		committer: committer,
	}
}

func (env *testEnv) stageSuccess(t *testing.T, name, content, category string) *model.StagedFile {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(env.srcDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := env.store.Add(path, name, "text/plain", int64(len(content)))
	require.NoError(t, err)
	require.NoError(t, env.store.SetStatus(f.ID, model.StatusAnalyzing))

	hash, err := fsops.New().Hash(ctx, path)
	require.NoError(t, err)
	require.NoError(t, env.store.SetHash(f.ID, hash))
	require.NoError(t, env.store.SetProposal(f.ID, model.Proposal{
		TargetPath: category,
		Summary:    "test file",
		Confidence: 0.9,
	}, model.StatusSuccess))

	got, err := env.store.Get(f.ID)
	require.NoError(t, err)
	return got
}

func TestCommitMovesEligibleFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.stageSuccess(t, "report.txt", "alpha content", "Documents/Reports")
	b := env.stageSuccess(t, "photo.jpg", "beta content", "Pictures")

	result, err := env.committer.Commit(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)

	assert.FileExists(t, filepath.Join(env.rootDir, "Documents", "Reports", "report.txt"))
	assert.FileExists(t, filepath.Join(env.rootDir, "Pictures", "photo.jpg"))
	assert.NoFileExists(t, a.SourcePath)
	assert.NoFileExists(t, b.SourcePath)

	assert.Empty(t, env.store.List())
	assert.Equal(t, staging.WorkflowDone, env.store.Workflow())

	entries := env.meta.Entries()
	require.Len(t, entries, 2)
	entry, ok := entries[a.ContentHash]
	require.True(t, ok)
	assert.Equal(t, "report.txt", entry.OriginalName)
	assert.Equal(t, "Documents/Reports", entry.Category)
	assert.False(t, entry.UserOverride)

	assert.Len(t, env.history.moves, 2)
}

func TestCommitPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.stageSuccess(t, "a.txt", "aaa", "Docs")
	b := env.stageSuccess(t, "b.txt", "bbb", "Blocked/Sub")
	c := env.stageSuccess(t, "c.txt", "ccc", "Docs")

	// A plain file where the target directory should go makes the
	// second move fail while the others succeed.
	require.NoError(t, os.WriteFile(filepath.Join(env.rootDir, "Blocked"), []byte("in the way"), 0o600))

	result, err := env.committer.Commit(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount)

	remaining := env.store.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
	assert.Equal(t, model.StatusSuccess, remaining[0].Status, "a failed move stays staged for retry")
	assert.FileExists(t, b.SourcePath)

	assert.Equal(t, staging.WorkflowReviewing, env.store.Workflow())
}

func TestCommitUserEditWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := env.stageSuccess(t, "memo.txt", "memo body", "Documents/Reports")
	edited := "Documents/Memos"
	require.NoError(t, env.store.SetUserEdit(f.ID, model.UserEdit{TargetPath: &edited}))

	result, err := env.committer.Commit(ctx, []string{f.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.FileExists(t, filepath.Join(env.rootDir, "Documents", "Memos", "memo.txt"))

	entry, ok := env.meta.Entries()[f.ContentHash]
	require.True(t, ok)
	assert.Equal(t, "Documents/Memos", entry.Category)
	assert.True(t, entry.UserOverride)
}

func TestCommitSkipsDuplicatesAndNonSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dupPath := filepath.Join(env.srcDir, "dup.txt")
	require.NoError(t, os.WriteFile(dupPath, []byte("dup content"), 0o600))
	dup, err := env.store.Add(dupPath, "dup.txt", "text/plain", 11)
	require.NoError(t, err)
	require.NoError(t, env.store.SetStatus(dup.ID, model.StatusAnalyzing))
	require.NoError(t, env.store.SetProposal(dup.ID, model.Proposal{
		TargetPath: "Docs",
		Tags:       []string{model.TagContentDuplicateRenamed},
	}, model.StatusSuccess))

	pendingPath := filepath.Join(env.srcDir, "pending.txt")
	require.NoError(t, os.WriteFile(pendingPath, []byte("pending"), 0o600))
	pending, err := env.store.Add(pendingPath, "pending.txt", "text/plain", 7)
	require.NoError(t, err)

	result, err := env.committer.Commit(ctx, []string{dup.ID, pending.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)

	assert.FileExists(t, dup.SourcePath)
	assert.FileExists(t, pendingPath)
	assert.Len(t, env.store.List(), 2)
}

func TestCommitNoOpMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	target := filepath.Join(env.rootDir, "Docs", "inplace.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, []byte("already sorted"), 0o600))

	f, err := env.store.Add(target, "inplace.txt", "text/plain", 14)
	require.NoError(t, err)
	require.NoError(t, env.store.SetStatus(f.ID, model.StatusAnalyzing))
	hash, err := fsops.New().Hash(ctx, target)
	require.NoError(t, err)
	require.NoError(t, env.store.SetHash(f.ID, hash))
	require.NoError(t, env.store.SetProposal(f.ID, model.Proposal{TargetPath: "Docs"}, model.StatusSuccess))

	result, err := env.committer.Commit(ctx, []string{f.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)
	assert.FileExists(t, target)
	assert.Empty(t, env.store.List())

	// Nothing physically moved, so there is nothing to undo.
	log, err := env.undo.ReadUndoLog(ctx)
	require.NoError(t, err)
	assert.True(t, log.Empty())
}

func TestCommitEmptyStaging(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.committer.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrNoStagedFiles)
}

func TestNewCommitterRequiresRoot(t *testing.T) {
	_, err := NewCommitter(staging.NewStore(), fsops.New(), nil, nil, nil, "")
	assert.ErrorIs(t, err, common.ErrNoRootDir)
}

func TestCommitUndoInverse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := env.stageSuccess(t, "cycle.txt", "round trip", "Documents")
	source := f.SourcePath
	target := filepath.Join(env.rootDir, "Documents", "cycle.txt")

	result, err := env.committer.Commit(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)
	require.FileExists(t, target)

	undoResult, err := env.committer.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, undoResult.SuccessCount)
	assert.Equal(t, 0, undoResult.FailCount)
	assert.FileExists(t, source)
	assert.NoFileExists(t, target)

	// Restored file is staged again as Pending.
	restaged := env.store.List()
	require.Len(t, restaged, 1)
	assert.Equal(t, model.StatusPending, restaged[0].Status)
	assert.Equal(t, source, restaged[0].SourcePath)

	// And its committed-index entry is gone.
	assert.Empty(t, env.meta.Entries())

	// A second undo has nothing to replay.
	_, err = env.committer.Undo(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Re-commit reproduces the same target: no drift.
	id := restaged[0].ID
	require.NoError(t, env.store.SetStatus(id, model.StatusAnalyzing))
	hash, err := fsops.New().Hash(ctx, source)
	require.NoError(t, err)
	require.NoError(t, env.store.SetHash(id, hash))
	require.NoError(t, env.store.SetProposal(id, model.Proposal{TargetPath: "Documents"}, model.StatusSuccess))

	result, err = env.committer.Commit(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.FileExists(t, target)
}

func TestUndoSkipsMissingFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.stageSuccess(t, "kept.txt", "kept", "Docs")
	b := env.stageSuccess(t, "vanished.txt", "vanished", "Docs")

	result, err := env.committer.Commit(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)

	// Someone deleted one committed file out from under us.
	require.NoError(t, os.Remove(filepath.Join(env.rootDir, "Docs", "vanished.txt")))

	undoResult, err := env.committer.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, undoResult.SuccessCount)
	assert.Equal(t, 1, undoResult.FailCount)
	assert.FileExists(t, a.SourcePath)
	assert.NoFileExists(t, b.SourcePath)

	// Partial failure still clears the log.
	_, err = env.committer.Undo(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
