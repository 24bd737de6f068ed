package validate

import (
	"encoding/json"
	"strings"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/pkg/utils"
)

// ParseRule extracts a correction rule from raw learning-oracle output. The first object
// carrying both pattern and action wins. Confidence is clamped to [0,1] and an unknown
// scope becomes user_specific.
func ParseRule(raw string) (*models.CorrectionRule, error) {
	candidates := findObjects(raw)
	if len(candidates) == 0 {
		return nil, newValidationError("no JSON object found", raw, nil)
	}
	var firstErr error
	for _, c := range candidates {
		var m map[string]any
		if err := json.Unmarshal([]byte(c), &m); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pattern := strings.TrimSpace(asString(m["pattern"]))
		action := strings.TrimSpace(asString(m["action"]))
		if pattern == "" || action == "" {
			continue
		}
		confidence, ok := asFloat(m["confidence"])
		if !ok {
			confidence = 0.5
		}
		scope := models.RuleScope(strings.ToLower(asString(m["scope"])))
		if scope != models.ScopeGlobal {
			scope = models.ScopeUserSpecific
		}
		return &models.CorrectionRule{
			Pattern:    pattern,
			Action:     action,
			Confidence: utils.Round2(utils.Clamp01(confidence)),
			Scope:      scope,
		}, nil
	}
	if firstErr != nil {
		return nil, newValidationError("malformed JSON", raw, firstErr)
	}
	return nil, newValidationError("rule needs pattern and action", raw, nil)
}
