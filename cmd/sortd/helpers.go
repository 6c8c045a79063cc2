package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/config"
	"github.com/sortd/sortd/internal/corrections"
	"github.com/sortd/sortd/internal/fsops"
	"github.com/sortd/sortd/internal/llm"
	"github.com/sortd/sortd/internal/metadata"
	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/staging"
	"github.com/sortd/sortd/internal/storage"
	"github.com/sortd/sortd/internal/taxonomy"
)

// app bundles the wired dependencies every command needs.
type app struct {
	cfg     *config.Config
	meta    *metadata.Store
	db      *storage.SQLiteStorage
	learner *corrections.Learner
	undo    *metadata.UndoStore
	fs      *fsops.FS
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, common.NewUserError("configuration could not be loaded; check ~/.config/sortd/config.yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, common.ErrNoRootDir) {
			return nil, common.NewUserError("sortd needs a destination: set root_dir in ~/.config/sortd/config.yaml or SORTD_ROOT_DIR", err)
		}
		return nil, err
	}

	meta := metadata.NewStore(cfg.MetadataPath())
	if err := meta.Load(ctx); err != nil {
		return nil, common.NewUserError("the metadata index could not be read", err)
	}

	db, err := storage.NewSQLiteStorage(cfg.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("the sortd database could not be opened", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	learner := corrections.NewLearner(db)
	if err := learner.Load(ctx); err != nil {
		slog.Warn("Failed to load corrections, starting fresh", "error", err)
	}

	return &app{
		cfg:     cfg,
		meta:    meta,
		db:      db,
		learner: learner,
		undo:    metadata.NewUndoStore(cfg.UndoLogPath()),
		fs:      fsops.New(),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// createLLMClient returns nil when no provider is configured; the
// engine then stages placeholder proposals instead of failing.
func (a *app) createLLMClient() llm.Client {
	client, err := llm.NewClient(a.cfg.Provider)
	if err != nil {
		if errors.Is(err, common.ErrNoProviderConfigured) {
			slog.Info("No AI provider configured; files will need manual categories")
			return nil
		}
		slog.Warn("Failed to create AI client", "error", err)
		return nil
	}
	return client
}

// stageDirectory scans dir and stages every regular file found.
func stageDirectory(ctx context.Context, store *staging.Store, fs *fsops.FS, dir string) ([]string, error) {
	tree, err := fs.ScanTree(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var ids []string
	for _, full := range taxonomy.FilePaths(tree) {
		info, err := fs.Stat(ctx, full)
		if err != nil {
			slog.Warn("Skipping unreadable file", "path", full, "error", err)
			continue
		}
		name := filepath.Base(full)
		f, err := store.Add(full, name, mime.TypeByExtension(filepath.Ext(name)), info.Size())
		if err != nil {
			slog.Warn("Skipping unstageable file", "path", full, "error", err)
			continue
		}
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func renderTable(headers table.Row, rows []table.Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	tw.AppendRows(rows)
	return tw.Render()
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
	)
}

func statusLabel(f *model.StagedFile) string {
	if f.Status == model.StatusError && f.Error != "" {
		return fmt.Sprintf("%s (%s)", f.Status, f.Error)
	}
	return string(f.Status)
}
