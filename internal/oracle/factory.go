package oracle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/models"
)

// Providers accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOffline   = "offline"
)

// Settings selects and configures one oracle.
type Settings struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New builds a guarded oracle for settings. Unknown providers and missing keys are
// ConfigurationErrors.
func New(ctx context.Context, s Settings, logger *zap.Logger) (Oracle, error) {
	var o Oracle
	switch s.Provider {
	case ProviderAnthropic:
		if s.APIKey == "" {
			return nil, &models.ConfigurationError{Field: "oracle.api_key", Reason: "is required for provider anthropic"}
		}
		o = NewAnthropicClient(s.APIKey, s.BaseURL, s.Model)
	case ProviderGemini:
		g, err := NewGeminiClient(ctx, s.APIKey, s.Model)
		if err != nil {
			return nil, &models.ConfigurationError{Field: "oracle", Reason: "cannot create gemini client", Err: err}
		}
		o = g
	case ProviderOffline, "":
		o = Offline{}
	default:
		return nil, &models.ConfigurationError{Field: "oracle.provider", Reason: fmt.Sprintf("unknown provider %q", s.Provider)}
	}
	return Guard(o, s.Timeout, logger), nil
}
