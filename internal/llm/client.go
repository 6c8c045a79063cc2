// Package llm defines the AI provider capability and its concrete
// clients. Providers answer two kinds of calls: a cheap manifest-level
// triage over a whole batch, and a targeted per-file analysis with
// content attached.
package llm

import (
	"context"
	"time"

	"github.com/sortd/sortd/internal/model"
)

// RequestType names the content a provider wants for deep analysis.
type RequestType string

// Supplement request types.
const (
	RequestTextPreview RequestType = "text_preview"
	RequestImageVision RequestType = "image_vision"
	RequestFullText    RequestType = "full_text"
	RequestPDFDocument RequestType = "pdf_document"
)

// DecisionKind is a manifest-phase verdict for one file.
type DecisionKind string

const (
	// DecisionDirect carries a complete proposal inline.
	DecisionDirect DecisionKind = "direct"
	// DecisionNeedInfo defers to a phase-two supplement call.
	DecisionNeedInfo DecisionKind = "need_info"
)

// ManifestFile is the metadata-only view of a file sent in phase one.
type ManifestFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// ManifestRequest is the phase-one triage call for a whole batch.
type ManifestRequest struct {
	Files      []ManifestFile
	Categories []string
	Config     model.TaxonomyConfig
}

// Analysis is a normalized provider proposal for one file.
type Analysis struct {
	Category   string
	Summary    string
	Reasoning  string
	Tags       []string
	Confidence float64
}

// ManifestDecision is the manifest verdict for one file: either a
// Direct analysis, or a NeedInfo marker with the content to fetch.
type ManifestDecision struct {
	Analysis    *Analysis
	FileID      string
	Kind        DecisionKind
	RequestType RequestType
}

// FileRequest is the phase-two supplement call for a single file.
// Exactly one of TextContent or BinaryBase64 is set for readable
// content; Description carries the constructed metadata-only fallback
// when the content could not be read.
type FileRequest struct {
	File         ManifestFile
	Categories   []string
	Config       model.TaxonomyConfig
	RequestType  RequestType
	TextContent  string
	BinaryBase64 string
	Description  string
}

// Client defines the interface for LLM providers.
type Client interface {
	AnalyzeManifest(ctx context.Context, req ManifestRequest) ([]ManifestDecision, error)
	AnalyzeFile(ctx context.Context, req FileRequest) (Analysis, error)
	Name() string
}

// Config holds provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	RetryDelay  time.Duration
	MaxRetries  int
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
