package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/triage/internal/oracle"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
pipeline:
  default_timezone: "Europe/Paris"
  correction_priority_window: 72h
router:
  force_route: "fast+enrich"
suggestions:
  display_threshold: 0.6
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" || cfg.Storage.IndexPath == "" {
		t.Error("storage paths should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Pipeline.DefaultTimezone != "Europe/Paris" || cfg.Pipeline.DefaultLocale != "fr" {
		t.Errorf("pipeline: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.CorrectionPriorityWindow != 72*time.Hour {
		t.Errorf("correction_priority_window = %v", cfg.Pipeline.CorrectionPriorityWindow)
	}
	if cfg.Router.ForceRoute != "fast+enrich" || cfg.Router.Threshold != 0.4 {
		t.Errorf("router: %+v", cfg.Router)
	}
	if cfg.Suggestions.DisplayThreshold != 0.6 || cfg.Suggestions.MaxPerItem != 3 {
		t.Errorf("suggestions: %+v", cfg.Suggestions)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/triage.db"
  index_path: "./data/indices/items"
watch:
  directory: "./inbox"
  user_id: "u1"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "triage.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantIndex := filepath.Join(dir, "data", "indices", "items")
	if cfg.Storage.IndexPath != wantIndex {
		t.Errorf("index_path = %s, want %s", cfg.Storage.IndexPath, wantIndex)
	}
	wantWatch := filepath.Join(dir, "inbox")
	if cfg.Watch.Directory != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directory, wantWatch)
	}
	if !cfg.Watch.Enabled() {
		t.Error("watch should be enabled with directory and user")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Oracle.Provider != oracle.ProviderOffline {
		t.Errorf("default provider: got %s", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Stage1.MaxOutputTokens != 1500 || cfg.Oracle.Stage2.MaxOutputTokens != 3000 {
		t.Errorf("stage tokens: %+v %+v", cfg.Oracle.Stage1, cfg.Oracle.Stage2)
	}
	if cfg.Pipeline.MaxAttempts != 2 {
		t.Errorf("max attempts: got %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Suggestions.MaxPerRun != 7 {
		t.Errorf("max per run: got %d", cfg.Suggestions.MaxPerRun)
	}
	if len(cfg.Watch.Extensions) != 1 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Enabled() {
		t.Error("watch should be disabled without a directory")
	}
}

func TestApplyDefaults_APIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "g-env")

	tests := []struct {
		name     string
		oracle   OracleConfig
		wantKey  string
		wantTier string
	}{
		{"anthropic env", OracleConfig{Provider: oracle.ProviderAnthropic}, "sk-env", "claude-3-5-haiku-latest"},
		{"gemini env", OracleConfig{Provider: oracle.ProviderGemini}, "g-env", "gemini-2.5-flash"},
		{"explicit key wins", OracleConfig{Provider: oracle.ProviderAnthropic, APIKey: "sk-file"}, "sk-file", "claude-3-5-haiku-latest"},
		{"offline ignores env", OracleConfig{Provider: oracle.ProviderOffline}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Oracle: tt.oracle}
			ApplyDefaults(cfg)
			if cfg.Oracle.APIKey != tt.wantKey {
				t.Errorf("api key = %q, want %q", cfg.Oracle.APIKey, tt.wantKey)
			}
			if cfg.Oracle.Stage1.Model != tt.wantTier {
				t.Errorf("stage1 model = %q, want %q", cfg.Oracle.Stage1.Model, tt.wantTier)
			}
		})
	}
}

func TestOracleConfig_Settings(t *testing.T) {
	o := &OracleConfig{Provider: oracle.ProviderAnthropic, APIKey: "k", BaseURL: "http://x"}
	s := o.Settings(StageConfig{Model: "m", Timeout: time.Second})
	if s.Provider != oracle.ProviderAnthropic || s.APIKey != "k" || s.BaseURL != "http://x" || s.Model != "m" || s.Timeout != time.Second {
		t.Errorf("settings: %+v", s)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db", IndexPath: "/tmp/index"},
	}
	ApplyDefaults(cfg)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Oracle.Stage2.Timeout != 30*time.Second {
		t.Errorf("durations should round-trip: got %v", loaded.Oracle.Stage2.Timeout)
	}
}

func TestSave_OmitsEnvironmentKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{Oracle: OracleConfig{Provider: oracle.ProviderAnthropic}}
	ApplyDefaults(cfg)
	if cfg.Oracle.APIKey != "sk-env" {
		t.Fatalf("api key from env: got %q", cfg.Oracle.APIKey)
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sk-env") {
		t.Error("environment key written to config file")
	}
	if cfg.Oracle.APIKey != "sk-env" {
		t.Error("Save must not modify the caller's config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/var/lib/triage.db", "/var/lib/triage.db"},
		{"./triage.db", "/etc/triage/triage.db"},
		{".", "/etc/triage"},
		{"~/inbox", filepath.Join(home, "inbox")},
		{"inbox", filepath.Join(home, "inbox")},
	}
	for _, tt := range tests {
		if got := expandPath(tt.path, "/etc/triage"); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
