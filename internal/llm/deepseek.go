package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sortd/sortd/internal/common"
)

const defaultDeepSeekBaseURL = "https://api.deepseek.com"

// deepseekClient implements the Client interface for the DeepSeek API
// (OpenAI-compatible chat completions). DeepSeek is text-only: vision
// and PDF supplement requests fail with a capability mismatch the
// engine can tell apart from generic errors.
type deepseekClient struct {
	httpClient  *http.Client
	limiter     *rateLimiter
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newDeepSeekClient creates a new DeepSeek API client.
func newDeepSeekClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &deepseekClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		limiter:     newRateLimiter(cfg.RateLimit),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func (c *deepseekClient) Name() string {
	return "deepseek"
}

// AnalyzeManifest sends the phase-one triage call.
func (c *deepseekClient) AnalyzeManifest(ctx context.Context, req ManifestRequest) ([]ManifestDecision, error) {
	content, err := c.complete(ctx, manifestSystemPrompt, buildManifestPrompt(req))
	if err != nil {
		return nil, err
	}
	return NormalizeManifest([]byte(content))
}

// AnalyzeFile sends a phase-two supplement call for one file.
func (c *deepseekClient) AnalyzeFile(ctx context.Context, req FileRequest) (Analysis, error) {
	switch req.RequestType {
	case RequestImageVision:
		return Analysis{}, fmt.Errorf("image analysis: %w", common.ErrNotSupported)
	case RequestPDFDocument:
		return Analysis{}, fmt.Errorf("pdf analysis: %w", common.ErrNotSupported)
	case RequestTextPreview, RequestFullText:
	default:
		if req.BinaryBase64 != "" {
			return Analysis{}, fmt.Errorf("binary analysis: %w", common.ErrNotSupported)
		}
	}

	content, err := c.complete(ctx, fileSystemPrompt, buildFilePrompt(req))
	if err != nil {
		return Analysis{}, err
	}
	return NormalizeAnalysis([]byte(content))
}

func (c *deepseekClient) complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}

	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("DeepSeek API: %w", common.ErrRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("DeepSeek API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response deepseekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return response.Choices[0].Message.Content, nil
}

// deepseekResponse represents the chat completions response structure.
type deepseekResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
}
