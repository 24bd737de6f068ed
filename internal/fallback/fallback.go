// Package fallback is the availability floor of the pipeline: a deterministic parser used
// when the oracle is unreachable or its output cannot be validated.
package fallback

import (
	"strings"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/pkg/utils"
)

const (
	// Confidence of every fallback item.
	Confidence = 0.5
	// Warning attached to every fallback item.
	Warning = "degraded parsing: understanding service unavailable, captured as a single task"
)

// Parse returns exactly one task holding the raw text, dated today. It never fails and,
// for the same text and the same today, always returns the same item.
func Parse(text string, tc *temporal.Context) []models.Item {
	raw := strings.TrimSpace(text)
	if raw == "" {
		raw = text
	}
	today := ""
	if tc != nil {
		today = tc.Today.Date
	}
	it := models.Item{
		Kind:      models.KindTask,
		Text:      raw,
		Date:      today,
		Urgent:    lexicon.IsUrgent(raw),
		Important: lexicon.IsImportant(raw),
		Tags:      []string{},
		Metadata: models.ItemMetadata{
			Confidence:      Confidence,
			People:          utils.Dedupe(lexicon.PersonNames(raw)),
			Suggestions:     []string{},
			Dependencies:    []string{},
			LearningSignals: []string{"fallback"},
		},
	}
	it.Warn(Warning)
	return []models.Item{it}
}
