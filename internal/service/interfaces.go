// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"io/fs"
	"time"

	"github.com/sortd/sortd/internal/model"
)

// TextContent is the result of reading a file as text. IsText is false
// when the content sniffed as binary; Content is then empty.
type TextContent struct {
	Content string
	IsText  bool
}

// FileSystem is the filesystem capability consumed by the engines.
// Every method returns an explicit error; none panics.
type FileSystem interface {
	ReadText(ctx context.Context, path string, maxBytes int64) (TextContent, error)
	ReadBinaryBase64(ctx context.Context, path string, maxBytes int64) (string, error)
	Move(ctx context.Context, src, dst string) error
	EnsureDir(ctx context.Context, path string) error
	ScanTree(ctx context.Context, root string) (*model.TreeNode, error)
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	Hash(ctx context.Context, path string) (string, error)
}

// MetadataStore persists the committed-file index and the taxonomy.
type MetadataStore interface {
	Load(ctx context.Context) error
	Save(ctx context.Context) error
	Entries() map[string]model.FileEntry
	PutEntry(ctx context.Context, entry model.FileEntry) error
	RemoveEntry(ctx context.Context, contentHash string) error
	CategoryPaths() []string
	Taxonomy() []*model.CategoryNode
	AddCategory(ctx context.Context, path string) (*model.CategoryNode, error)
	Config() model.TaxonomyConfig
	SetConfig(ctx context.Context, cfg model.TaxonomyConfig) error
}

// CorrectionStore persists the user-correction log across sessions.
type CorrectionStore interface {
	SaveCorrection(ctx context.Context, rec model.CorrectionRecord) error
	ListCorrections(ctx context.Context, limit int) ([]model.CorrectionRecord, error)
	PruneCorrections(ctx context.Context, keep int) error
}

// HistoryStore records committed moves for auditing.
type HistoryStore interface {
	SaveMove(ctx context.Context, op model.MoveOp, contentHash string, committedAt time.Time) error
	ListMoves(ctx context.Context, limit int) ([]model.MoveOp, error)
}

// UndoStore persists the single most-recent undo log.
type UndoStore interface {
	WriteUndoLog(ctx context.Context, log model.UndoLog) error
	ReadUndoLog(ctx context.Context) (*model.UndoLog, error)
	ClearUndoLog(ctx context.Context) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
