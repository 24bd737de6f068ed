package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/triage/internal/models"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.CorrectionRule
	}{
		{
			name: "plain",
			raw:  `{"pattern": "JP", "action": "owner=Jean-Pierre", "confidence": 0.9, "scope": "user_specific"}`,
			want: models.CorrectionRule{Pattern: "JP", Action: "owner=Jean-Pierre", Confidence: 0.9, Scope: models.ScopeUserSpecific},
		},
		{
			name: "prose and global scope",
			raw:  "Voici la règle :\n" + `{"pattern": "RDV", "action": "kind=event", "confidence": "0.8", "scope": "GLOBAL"}`,
			want: models.CorrectionRule{Pattern: "RDV", Action: "kind=event", Confidence: 0.8, Scope: models.ScopeGlobal},
		},
		{
			name: "clamped and defaulted",
			raw:  `{"note": "ignored"} {"pattern": "x", "action": "y", "confidence": 3, "scope": "team"}`,
			want: models.CorrectionRule{Pattern: "x", Action: "y", Confidence: 1, Scope: models.ScopeUserSpecific},
		},
		{
			name: "missing confidence",
			raw:  `{"pattern": "x", "action": "y"}`,
			want: models.CorrectionRule{Pattern: "x", Action: "y", Confidence: 0.5, Scope: models.ScopeUserSpecific},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRule(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseRule_Errors(t *testing.T) {
	for _, raw := range []string{"", "pas de json", `{"pattern": "x"}`, `{"pattern": `} {
		_, err := ParseRule(raw)
		var vErr *ValidationError
		assert.True(t, errors.As(err, &vErr), "raw %q: %v", raw, err)
	}
}
