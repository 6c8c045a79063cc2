package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/llm"
)

// MockClient is a test implementation of llm.Client with scriptable
// per-file behavior.
type MockClient struct {
	// ManifestErr fails the whole phase-one call when set.
	ManifestErr error
	// Decisions maps file name to the manifest verdict. Names absent
	// from the map get a Direct "Unsorted" proposal.
	Decisions map[string]llm.ManifestDecision
	// FileResults maps file name to the phase-two outcome.
	FileResults map[string]FileResult
	// TextOnly makes the mock reject vision and PDF supplement
	// requests the way a text-only provider does.
	TextOnly bool

	mu            sync.Mutex
	manifestCalls int
	fileCalls     []llm.FileRequest
}

// FileResult scripts one phase-two response.
type FileResult struct {
	Err      error
	Analysis llm.Analysis
}

// NewMockClient creates a mock provider with empty scripts.
func NewMockClient() *MockClient {
	return &MockClient{
		Decisions:   make(map[string]llm.ManifestDecision),
		FileResults: make(map[string]FileResult),
	}
}

// Name implements llm.Client.
func (m *MockClient) Name() string { return "mock" }

// AnalyzeManifest implements llm.Client.
func (m *MockClient) AnalyzeManifest(_ context.Context, req llm.ManifestRequest) ([]llm.ManifestDecision, error) {
	m.mu.Lock()
	m.manifestCalls++
	m.mu.Unlock()

	if m.ManifestErr != nil {
		return nil, m.ManifestErr
	}

	decisions := make([]llm.ManifestDecision, 0, len(req.Files))
	for _, f := range req.Files {
		if d, ok := m.Decisions[f.Name]; ok {
			d.FileID = f.ID
			decisions = append(decisions, d)
			continue
		}
		decisions = append(decisions, llm.ManifestDecision{
			FileID: f.ID,
			Kind:   llm.DecisionDirect,
			Analysis: &llm.Analysis{
				Category:   "Unsorted",
				Summary:    fmt.Sprintf("No script for %s", f.Name),
				Confidence: 0.5,
			},
		})
	}
	return decisions, nil
}

// AnalyzeFile implements llm.Client.
func (m *MockClient) AnalyzeFile(_ context.Context, req llm.FileRequest) (llm.Analysis, error) {
	m.mu.Lock()
	m.fileCalls = append(m.fileCalls, req)
	m.mu.Unlock()

	if m.TextOnly && (req.RequestType == llm.RequestImageVision || req.RequestType == llm.RequestPDFDocument) {
		return llm.Analysis{}, fmt.Errorf("%s analysis: %w", req.RequestType, common.ErrNotSupported)
	}

	if r, ok := m.FileResults[req.File.Name]; ok {
		return r.Analysis, r.Err
	}
	return llm.Analysis{
		Category:   "Unsorted",
		Summary:    fmt.Sprintf("No script for %s", req.File.Name),
		Confidence: 0.5,
	}, nil
}

// ManifestCalls reports how many phase-one calls were made.
func (m *MockClient) ManifestCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifestCalls
}

// FileCalls returns the recorded phase-two requests.
func (m *MockClient) FileCalls() []llm.FileRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.FileRequest(nil), m.fileCalls...)
}
