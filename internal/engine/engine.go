// Package engine implements the batch reconciliation engine: it turns
// newly staged files into reviewed proposals through hashing, dedup,
// a two-phase AI protocol, and taxonomy resolution.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/corrections"
	"github.com/sortd/sortd/internal/dedup"
	"github.com/sortd/sortd/internal/llm"
	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/service"
	"github.com/sortd/sortd/internal/staging"
	"github.com/sortd/sortd/internal/taxonomy"
)

// Content slice sizes for supplement requests.
const (
	previewBytes  = 16 << 10
	fullTextBytes = 256 << 10
	binaryBytes   = 4 << 20
)

// Config holds engine tuning options.
type Config struct {
	// Progress, when set, is called after each file reaches a
	// terminal status.
	Progress  func(done, total int)
	RetryOpts service.RetryOptions
}

// Engine orchestrates reconciliation for batches of staged files.
type Engine struct {
	store    *staging.Store
	fs       service.FileSystem
	client   llm.Client
	learner  *corrections.Learner
	meta     service.MetadataStore
	index    *dedup.Index
	progress func(done, total int)
	retry    service.RetryOptions
}

// New creates a reconciliation engine. client may be nil: files then
// receive a placeholder proposal telling the user to configure a
// provider, which is a reported state rather than an error.
func New(store *staging.Store, fs service.FileSystem, client llm.Client, learner *corrections.Learner, meta service.MetadataStore, cfg Config) *Engine {
	return &Engine{
		store:    store,
		fs:       fs,
		client:   client,
		learner:  learner,
		meta:     meta,
		index:    dedup.NewIndex(meta.Entries()),
		progress: cfg.Progress,
		retry:    cfg.RetryOpts,
	}
}

// ProcessFiles runs the full reconciliation pipeline over the given
// staged file ids. Per-file failures never abort the batch; a failed
// manifest call degrades every remaining file to Error.
func (e *Engine) ProcessFiles(ctx context.Context, ids []string) error {
	cfg := e.meta.Config()
	categories := e.meta.CategoryPaths()

	total := len(ids)
	done := 0
	advance := func() {
		done++
		if e.progress != nil {
			e.progress(done, total)
		}
	}

	// Phase 0: hash and dedup-check every candidate.
	candidates := make([]*model.StagedFile, 0, len(ids))
	for _, id := range ids {
		f, err := e.store.Get(id)
		if err != nil {
			slog.Warn("Skipping unknown staged file", "id", id, "error", err)
			advance()
			continue
		}
		if f.Status != model.StatusPending {
			// Externally re-routed; cooperative skip.
			advance()
			continue
		}

		if matched, pattern := matchesIgnorePattern(f.DisplayName, cfg.IgnorePatterns); matched {
			_ = e.store.SetError(id, fmt.Sprintf("excluded by ignore pattern %q", pattern))
			advance()
			continue
		}

		if err := e.store.SetStatus(id, model.StatusAnalyzing); err != nil {
			advance()
			continue
		}

		hash, err := e.fs.Hash(ctx, f.SourcePath)
		if err != nil {
			_ = e.store.SetError(id, fmt.Sprintf("failed to hash file: %v", err))
			advance()
			continue
		}
		_ = e.store.SetHash(id, hash)
		f.ContentHash = hash

		if existing, ok := e.index.Get(hash); ok && existing.ID != f.ID {
			e.proposeDuplicate(id, f.DisplayName, e.index.Check(hash, f.DisplayName))
			advance()
			continue
		} else if !ok {
			// Record the hash now so a second copy later in this batch
			// is caught, not just copies committed in earlier sessions.
			if err := e.index.Put(model.FileEntry{
				ID:           f.ID,
				OriginalName: f.DisplayName,
				CurrentPath:  f.SourcePath,
				ContentHash:  hash,
			}); err != nil {
				slog.Warn("Failed to index staged hash", "id", id, "error", err)
			}
		}

		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		return nil
	}

	if e.client == nil {
		// Not an error state: a placeholder proposal guides the user.
		for _, f := range candidates {
			_ = e.store.SetProposal(f.ID, model.Proposal{
				Summary: "No AI provider is configured. Set one up in the settings, then reanalyze.",
				Tags:    []string{"needs-provider"},
			}, model.StatusError)
			advance()
		}
		return common.ErrNoProviderConfigured
	}

	// Phase 1: one manifest call for the whole batch.
	decisions, err := e.analyzeManifest(ctx, candidates, categories, cfg)
	if err != nil {
		common.LogError(err, "Manifest analysis failed, degrading batch", common.Fields{
			"files":    len(candidates),
			"provider": e.client.Name(),
		})
		msg := fmt.Sprintf("batch analysis failed: %v", err)
		for _, f := range candidates {
			_ = e.store.SetError(f.ID, msg)
			advance()
		}
		return fmt.Errorf("manifest analysis: %w", err)
	}

	// Phase 2: resolve each file independently.
	for _, f := range candidates {
		if ctx.Err() != nil {
			remaining := fmt.Sprintf("analysis canceled: %v", ctx.Err())
			_ = e.store.SetError(f.ID, remaining)
			advance()
			continue
		}

		e.processOne(ctx, f, decisions[f.ID], categories, cfg)
		advance()
	}

	common.LogInfo("Batch reconciliation complete", common.Fields{
		"submitted": total,
		"analyzed":  len(candidates),
	})
	return nil
}

// Reanalyze resets a file and runs it through the pipeline again.
func (e *Engine) Reanalyze(ctx context.Context, id string) error {
	if err := e.store.Reanalyze(id); err != nil {
		return err
	}
	return e.ProcessFiles(ctx, []string{id})
}

// RecordCorrection learns from a user override and replays it on
// future files. The learned path bypasses the resolver entirely.
func (e *Engine) RecordCorrection(ctx context.Context, aiSuggested, userChosen, fileName string) error {
	return e.learner.Record(ctx, aiSuggested, userChosen, fileName)
}

func (e *Engine) proposeDuplicate(id, displayName string, dup dedup.DuplicateInfo) {
	summary := fmt.Sprintf("Exact duplicate of %q already indexed at %s.", dup.ExistingName, dup.ExistingPath)
	if dup.Tag == model.TagContentDuplicateRenamed {
		summary = fmt.Sprintf("Same content as %q (this copy is named %q), indexed at %s. Rename or discard.",
			dup.ExistingName, displayName, dup.ExistingPath)
	}
	_ = e.store.SetProposal(id, model.Proposal{
		Summary:    summary,
		Tags:       []string{dup.Tag},
		Confidence: 1,
	}, model.StatusDuplicate)
}

func (e *Engine) analyzeManifest(ctx context.Context, files []*model.StagedFile, categories []string, cfg model.TaxonomyConfig) (map[string]llm.ManifestDecision, error) {
	req := llm.ManifestRequest{
		Files:      make([]llm.ManifestFile, 0, len(files)),
		Categories: categories,
		Config:     cfg,
	}
	for _, f := range files {
		req.Files = append(req.Files, llm.ManifestFile{
			ID:       f.ID,
			Name:     f.DisplayName,
			Size:     f.Size,
			MimeType: f.MimeType,
		})
	}

	var decisions []llm.ManifestDecision
	err := common.WithRetry(ctx, func() error {
		var callErr error
		decisions, callErr = e.client.AnalyzeManifest(ctx, req)
		return callErr
	}, e.retry)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]llm.ManifestDecision, len(decisions))
	for _, d := range decisions {
		byID[d.FileID] = d
	}
	return byID, nil
}

// processOne takes a single file from manifest decision to terminal
// status. Panics are contained: a bug in one file's handling must not
// take down the batch.
func (e *Engine) processOne(ctx context.Context, f *model.StagedFile, decision llm.ManifestDecision, categories []string, cfg model.TaxonomyConfig) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError(fmt.Errorf("%v", r), "Panic while processing file", common.Fields{"id": f.ID})
			_ = e.store.SetError(f.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Cooperative cancellation: someone re-routed the file while the
	// batch was in flight.
	if current, err := e.store.Get(f.ID); err != nil || current.Status != model.StatusAnalyzing {
		return
	}

	var analysis llm.Analysis
	metadataOnly := false

	switch {
	case decision.Kind == llm.DecisionDirect && decision.Analysis != nil:
		analysis = *decision.Analysis
	default:
		requestType := decision.RequestType
		if requestType == "" || (cfg.ForceDeepAnalysis && requestType == llm.RequestTextPreview) {
			requestType = llm.RequestFullText
		}

		req, usedFallback := e.buildFileRequest(ctx, f, requestType, categories, cfg)
		metadataOnly = usedFallback

		callErr := common.WithRetry(ctx, func() error {
			var err error
			analysis, err = e.client.AnalyzeFile(ctx, req)
			return err
		}, e.retry)
		if callErr != nil {
			if common.IsNotSupported(callErr) {
				_ = e.store.SetError(f.ID, fmt.Sprintf("%s: the configured provider cannot analyze this content (%v); switch provider or set the category manually", model.TagNotSupported, callErr))
				return
			}
			_ = e.store.SetError(f.ID, fmt.Sprintf("analysis failed: %v", callErr))
			return
		}
	}

	finalPath := e.finalizePath(analysis.Category, f.DisplayName, categories, cfg)

	proposal := model.Proposal{
		TargetPath: finalPath,
		Summary:    analysis.Summary,
		Reasoning:  analysis.Reasoning,
		Tags:       analysis.Tags,
		Confidence: analysis.Confidence,
	}
	if metadataOnly {
		proposal.Tags = append(proposal.Tags, model.TagMetadataOnly)
	}

	if err := e.store.SetProposal(f.ID, proposal, model.StatusSuccess); err != nil {
		slog.Warn("Failed to write proposal", "id", f.ID, "error", err)
	}
}

// buildFileRequest fetches the content slice the provider asked for.
// Unreadable content degrades to a metadata-only description rather
// than leaving the file unresolved.
func (e *Engine) buildFileRequest(ctx context.Context, f *model.StagedFile, requestType llm.RequestType, categories []string, cfg model.TaxonomyConfig) (llm.FileRequest, bool) {
	req := llm.FileRequest{
		File: llm.ManifestFile{
			ID:       f.ID,
			Name:     f.DisplayName,
			Size:     f.Size,
			MimeType: f.MimeType,
		},
		Categories:  categories,
		Config:      cfg,
		RequestType: requestType,
	}

	switch requestType {
	case llm.RequestImageVision, llm.RequestPDFDocument:
		data, err := e.fs.ReadBinaryBase64(ctx, f.SourcePath, binaryBytes)
		if err == nil {
			req.BinaryBase64 = data
			return req, false
		}
		slog.Warn("Failed to read binary content, degrading to metadata", "id", f.ID, "error", err)
	case llm.RequestFullText, llm.RequestTextPreview:
		maxBytes := int64(previewBytes)
		if requestType == llm.RequestFullText {
			maxBytes = fullTextBytes
		}
		content, err := e.fs.ReadText(ctx, f.SourcePath, maxBytes)
		if err == nil && content.IsText {
			req.TextContent = content.Content
			return req, false
		}
		if err != nil {
			slog.Warn("Failed to read text content, degrading to metadata", "id", f.ID, "error", err)
		}
	}

	req.RequestType = llm.RequestTextPreview
	req.BinaryBase64 = ""
	req.TextContent = ""
	req.Description = fmt.Sprintf(
		"The file content could not be read. Classify from metadata only: name=%q, size=%d bytes, mimeType=%s.",
		f.DisplayName, f.Size, f.MimeType)
	return req, true
}

// finalizePath runs the resolution pipeline: correction replay first,
// then taxonomy resolution with depth, vocabulary, and sibling bounds.
func (e *Engine) finalizePath(suggested, fileName string, categories []string, cfg model.TaxonomyConfig) string {
	if rec := e.learner.FindApplicable(fileName); rec != nil {
		slog.Debug("Applying learned correction",
			"file", fileName,
			"path", rec.UserChosen)
		return model.NormalizePath(rec.UserChosen)
	}

	res := taxonomy.Resolve(suggested, categories, cfg)
	final := res.Path
	if res.LowConfidence() {
		slog.Info("Forced fallback resolution",
			"suggested", suggested,
			"resolved", final,
			"score", res.Score)
	}

	if cfg.Mode == model.ModeFlexible {
		final = taxonomy.ApplyChildBound(final, categories, cfg)
	}
	return model.NormalizePath(final)
}

// matchesIgnorePattern checks a display name against the configured
// glob-like patterns. A bare extension pattern like ".tmp" matches as
// a suffix.
func matchesIgnorePattern(name string, patterns []string) (bool, string) {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		pattern := strings.ToLower(strings.TrimSpace(p))
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(lower, pattern) {
				return true, p
			}
			continue
		}
		if ok, err := path.Match(pattern, lower); err == nil && ok {
			return true, p
		}
	}
	return false, ""
}
