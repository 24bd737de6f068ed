package config

import (
	"os"
	"time"

	"github.com/hyperjump/triage/internal/oracle"
)

// Default models per provider: a fast one for Stage-1 and learning, a stronger one for Stage-2.
var defaultModels = map[string][2]string{
	oracle.ProviderAnthropic: {"claude-3-5-haiku-latest", "claude-sonnet-4-5"},
	oracle.ProviderGemini:    {"gemini-2.5-flash", "gemini-2.5-pro"},
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/triage/data/db/triage.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/triage/data/indices/items"
	}

	applyOracleDefaults(&cfg.Oracle)
	cfg.Pipeline.ApplyDefaults()
	cfg.Router.ApplyDefaults()
	cfg.Suggestions.ApplyDefaults()

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func applyOracleDefaults(o *OracleConfig) {
	if o.Provider == "" {
		o.Provider = oracle.ProviderOffline
	}
	if o.APIKey == "" {
		o.APIKey = envAPIKey(o.Provider)
	}

	models := defaultModels[o.Provider]
	stage := func(s *StageConfig, model string, tokens int, timeout time.Duration) {
		if s.Model == "" {
			s.Model = model
		}
		if s.MaxOutputTokens == 0 {
			s.MaxOutputTokens = tokens
		}
		if s.Timeout == 0 {
			s.Timeout = timeout
		}
	}
	stage(&o.Stage1, models[0], 1500, 10*time.Second)
	stage(&o.Stage2, models[1], 3000, 30*time.Second)
	stage(&o.Learning, models[0], 400, 10*time.Second)
}

// envAPIKey returns the provider's key from the environment.
func envAPIKey(provider string) string {
	switch provider {
	case oracle.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case oracle.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

// Settings returns the oracle settings for one stage.
func (o *OracleConfig) Settings(s StageConfig) oracle.Settings {
	return oracle.Settings{
		Provider: o.Provider,
		APIKey:   o.APIKey,
		BaseURL:  o.BaseURL,
		Model:    s.Model,
		Timeout:  s.Timeout,
	}
}
