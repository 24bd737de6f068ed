// Package config provides configuration loading and structs for the triage server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/triage/internal/pipeline"
	"github.com/hyperjump/triage/internal/router"
	"github.com/hyperjump/triage/internal/suggest"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool                  `yaml:"debug"`
	Server      ServerConfig          `yaml:"server"`
	Storage     StorageConfig         `yaml:"storage"`
	Oracle      OracleConfig          `yaml:"oracle"`
	Pipeline    pipeline.Config       `yaml:"pipeline"`
	Router      router.Config         `yaml:"router"`
	Suggestions suggest.ScoringConfig `yaml:"suggestions"`
	Watch       WatchConfig           `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Upper bound on one request, enrichment included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds paths for the database and the item index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// OracleConfig selects the understanding oracle and configures each call site.
type OracleConfig struct {
	Provider string `yaml:"provider"` // anthropic, gemini or offline
	// Falls back to ANTHROPIC_API_KEY or GEMINI_API_KEY.
	APIKey   string      `yaml:"api_key"`
	BaseURL  string      `yaml:"base_url"`
	Stage1   StageConfig `yaml:"stage1"`
	Stage2   StageConfig `yaml:"stage2"`
	Learning StageConfig `yaml:"learning"`
}

// StageConfig configures the oracle calls of one stage.
type StageConfig struct {
	Model           string        `yaml:"model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// WatchConfig holds inbox drop-folder settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	UserID     string   `yaml:"user_id"`
	Extensions []string `yaml:"extensions"`
	// Quiet period after the last write before a file is captured.
	Debounce time.Duration `yaml:"debounce"`
}

// Enabled reports whether a drop folder is configured.
func (w *WatchConfig) Enabled() bool {
	return w.Directory != "" && w.UserID != ""
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path, creating its directory. An API key that came from the
// environment is not written.
func Save(path string, cfg *Config) error {
	out := *cfg
	if key := envAPIKey(out.Oracle.Provider); key != "" && key == out.Oracle.APIKey {
		out.Oracle.APIKey = ""
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath makes path absolute. "./" paths are relative to configDir; "~/" and other
// relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	switch {
	case path == "" || filepath.IsAbs(path):
		return path
	case path == "." || strings.HasPrefix(path, "./"):
		return filepath.Join(configDir, path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}
