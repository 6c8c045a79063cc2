package llm

import (
	"fmt"
	"strings"

	"github.com/sortd/sortd/internal/common"
)

// NewClient creates an LLM client based on the provided configuration.
// An empty provider is the not-configured state the caller surfaces to
// the user; an unknown provider is a configuration error.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, common.ErrNoProviderConfigured
	case "gemini":
		return newGeminiClient(cfg)
	case "deepseek":
		return newDeepSeekClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
