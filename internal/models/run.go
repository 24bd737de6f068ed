package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxCaptureLength bounds the text sent to an oracle in one capture. Longer captures
// are still accepted and go to the offline parser.
const MaxCaptureLength = 10000

// CaptureRequest is the caller input for one pipeline run.
type CaptureRequest struct {
	UserID        string     `json:"user_id"`
	Text          string     `json:"text"`
	Timezone      string     `json:"timezone,omitempty"`
	Locale        string     `json:"locale,omitempty"`
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}

// Validate checks the request. Empty text or a missing user is a ConfigurationError.
func (r *CaptureRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return &ConfigurationError{Field: "user_id", Reason: "is required"}
	}
	if strings.TrimSpace(r.Text) == "" {
		return &ConfigurationError{Field: "text", Reason: "is required"}
	}
	return nil
}

// Capture freezes the request into the unit of work for run id.
func (r *CaptureRequest) Capture(id string, receivedAt time.Time) CapturedText {
	return CapturedText{ID: id, UserID: r.UserID, Text: r.Text, ReceivedAt: receivedAt}
}

// Stats counts what a run produced.
type Stats struct {
	Tasks       int `json:"tasks"`
	Events      int `json:"events"`
	Notes       int `json:"notes"`
	Suggestions int `json:"suggestions"`
}

// CountStats tallies items by kind plus the number of suggestions.
func CountStats(items []Item, suggestions []ProactiveSuggestion) Stats {
	var s Stats
	for i := range items {
		switch items[i].Kind {
		case KindTask:
			s.Tasks++
		case KindEvent:
			s.Events++
		case KindNote:
			s.Notes++
		}
	}
	s.Suggestions = len(suggestions)
	return s
}

// CaptureResult is what the caller receives for a run.
type CaptureResult struct {
	RunID            string                `json:"run_id"`
	Items            []Item                `json:"items"`
	Suggestions      []ProactiveSuggestion `json:"suggestions"`
	Stats            Stats                 `json:"stats"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
	Route            string                `json:"route,omitempty"`
	Degraded         bool                  `json:"degraded,omitempty"`
	Warnings         []string              `json:"warnings,omitempty"`
}

// RunMetrics is recorded once per run in external storage.
type RunMetrics struct {
	RunID           string    `json:"run_id"`
	UserID          string    `json:"user_id"`
	Route           string    `json:"route"`
	ComplexityScore float64   `json:"complexity_score"`
	OracleCalls     int       `json:"oracle_calls"`
	Stage1OK        bool      `json:"stage1_ok"`
	Stage2OK        bool      `json:"stage2_ok"`
	Fallback        bool      `json:"fallback"`
	Items           int       `json:"items"`
	Suggestions     int       `json:"suggestions"`
	PersistFailures int       `json:"persist_failures"`
	DurationMS      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// FeedbackVerdict is the user's overall judgement of a run.
type FeedbackVerdict string

const (
	FeedbackCorrect   FeedbackVerdict = "correct"
	FeedbackIncorrect FeedbackVerdict = "incorrect"
	FeedbackPartial   FeedbackVerdict = "partial"
)

// CorrectableFields lists item fields a correction may target.
var CorrectableFields = []string{
	"kind", "text", "title", "content", "date", "start_time", "end_time", "location",
	"owner", "people", "project", "tags", "urgent", "important", "color",
}

// FieldCorrection is one user-supplied fix.
type FieldCorrection struct {
	ItemIndex int    `json:"item_index,omitempty"`
	Field     string `json:"field"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Comment   string `json:"comment,omitempty"`
}

// FeedbackSubmission is the body of a feedback request for one run.
type FeedbackSubmission struct {
	Feedback    FeedbackVerdict   `json:"feedback"`
	Corrections []FieldCorrection `json:"corrections"`
	Rating      int               `json:"rating,omitempty"`
}

// Validate checks verdict, rating range and correction fields.
func (f *FeedbackSubmission) Validate() error {
	switch f.Feedback {
	case FeedbackCorrect, FeedbackIncorrect, FeedbackPartial:
	default:
		return &ConfigurationError{Field: "feedback", Reason: fmt.Sprintf("unknown verdict %q", f.Feedback)}
	}
	if f.Rating < 0 || f.Rating > 5 {
		return &ConfigurationError{Field: "rating", Reason: "must be between 1 and 5, or 0 when unset"}
	}
	for i, c := range f.Corrections {
		if !isCorrectable(c.Field) {
			return &ConfigurationError{Field: fmt.Sprintf("corrections[%d].field", i), Reason: fmt.Sprintf("unknown field %q", c.Field)}
		}
		if strings.TrimSpace(c.Corrected) == "" {
			return &ConfigurationError{Field: fmt.Sprintf("corrections[%d].corrected", i), Reason: "is required"}
		}
	}
	return nil
}

func isCorrectable(field string) bool {
	for _, f := range CorrectableFields {
		if f == field {
			return true
		}
	}
	return false
}

// FeedbackResult reports what the learner stored for a submission.
type FeedbackResult struct {
	RunID       string             `json:"run_id"`
	Corrections []CorrectionRecord `json:"corrections"`
	Entities    []LearnedEntity    `json:"entities,omitempty"`
}
