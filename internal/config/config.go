// Package config loads application configuration from Viper and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/llm"
)

// Config is the resolved application configuration.
type Config struct {
	// RootDir is the base of the organized tree. There is no default:
	// refusing to guess where user files go is a deliberate choice.
	RootDir string
	// DataDir holds the metadata document, the undo log, and the
	// corrections database.
	DataDir  string
	Provider llm.Config
}

// Load builds a Config from Viper and environment variables.
// Precedence per key: config file / SORTD_ env vars via Viper, then
// direct environment variables, then defaults.
func Load() (*Config, error) {
	cfg := &Config{
		RootDir: ExpandPath(viper.GetString("root_dir")),
		DataDir: ExpandPath(viper.GetString("data_dir")),
	}
	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	provider, err := loadProvider()
	if err != nil {
		return nil, err
	}
	cfg.Provider = provider
	return cfg, nil
}

// Validate checks the parts of the config that block file operations.
// A missing provider is not checked here: it is a reported state, not
// a startup failure.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("%w: set root_dir in the config file or SORTD_ROOT_DIR", common.ErrNoRootDir)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", common.ErrInvalidConfig)
	}
	return nil
}

// MetadataPath is the persisted metadata document location.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.DataDir, "metadata.json")
}

// UndoLogPath is the single undo log location.
func (c *Config) UndoLogPath() string {
	return filepath.Join(c.DataDir, "undo.json")
}

// DatabasePath is the SQLite database holding corrections and move
// history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "sortd.db")
}

func loadProvider() (llm.Config, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}

	cfg.APIKey = viper.GetString("llm.api_key")
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "gemini":
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		case "deepseek":
			cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")
		}
	}
	if cfg.Provider != "" && cfg.APIKey == "" {
		return llm.Config{}, fmt.Errorf("%w: no API key for provider %q", common.ErrMissingConfig, cfg.Provider)
	}
	return cfg, nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "sortd"), nil
}
