package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/triage/internal/models"
)

func sampleResult() *models.CaptureResult {
	items := []models.Item{
		{ID: "i1", Kind: models.KindEvent, Text: "RDV dentiste", Date: "2026-01-11",
			StartTime: models.StringPtr("14:30"), EndTime: models.StringPtr("15:30"),
			Metadata: models.ItemMetadata{Confidence: 0.95}},
		{ID: "i2", Kind: models.KindNote, Title: "Redis", Content: "utiliser Redis pour le cache", Date: "2026-01-10",
			Tags: []string{"tech"}, Metadata: models.ItemMetadata{Confidence: 0.9, Warnings: []string{"date defaulted"}}},
	}
	suggestions := []models.ProactiveSuggestion{
		{ID: "s1", Type: models.SuggestionPrepTask, SuggestedTask: "Préparer les questions", SuggestedDate: "2026-01-11",
			PriorityScore: 0.75, Status: models.StatusPending},
	}
	return &models.CaptureResult{
		RunID:            "run-1",
		Items:            items,
		Suggestions:      suggestions,
		Stats:            models.CountStats(items, suggestions),
		ProcessingTimeMS: 42,
		Route:            "fast",
		Warnings:         []string{"some of your projects could not be loaded"},
	}
}

func TestWriteCaptureResult_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCaptureResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Run run-1: 0 tasks, 1 events, 1 notes, 1 suggestions in 42ms (route fast)",
		"[0] event | 2026-01-11 14:30-15:30 | confidence 0.95",
		"Title: Redis",
		"#tech",
		"! date defaulted",
		"! some of your projects could not be loaded",
		"0.75  prep_task",
		"id=s1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Offline mode") {
		t.Error("non-degraded run should not mention offline mode")
	}
}

func TestWriteCaptureResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCaptureResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.CaptureResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "run-1" || len(decoded.Items) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSuggestions(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No suggestions.") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	sg := []models.ProactiveSuggestion{{Type: models.SuggestionFollowup, SuggestedTask: "Relancer", PriorityScore: 0.5, Status: models.StatusSnoozed}}
	_ = WriteSuggestions(&buf, sg, OutputText)
	if !strings.Contains(buf.String(), "[snoozed]") {
		t.Errorf("status not shown: %q", buf.String())
	}
}

func TestWriteFeedbackResult(t *testing.T) {
	res := &models.FeedbackResult{
		RunID: "run-1",
		Corrections: []models.CorrectionRecord{{Field: "owner", Original: "JP", Corrected: "Jean-Pierre",
			State: models.CorrectionStored,
			Rule:  &models.CorrectionRule{Pattern: "JP", Action: "replace_with(Jean-Pierre)", Confidence: 0.8, Scope: models.ScopeUserSpecific}}},
		Entities: []models.LearnedEntity{{Name: "Jean-Pierre", Type: models.EntityPerson, Frequency: 1, Aliases: []string{"JP"}}},
	}
	var buf bytes.Buffer
	if err := WriteFeedbackResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Stored 1 corrections") || !strings.Contains(out, "learned person Jean-Pierre") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"json", OutputJSON},
		{" JSON ", OutputJSON},
		{"text", OutputText},
		{"", OutputText},
		{"yaml", OutputText},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
