// Package models defines core data structures for captures, items, suggestions and learning.
package models

import "time"

// ItemKind is the closed set of item variants produced by a run.
type ItemKind string

const (
	KindTask  ItemKind = "task"
	KindEvent ItemKind = "event"
	KindNote  ItemKind = "note"
)

// Valid reports whether k is one of task, event or note.
func (k ItemKind) Valid() bool {
	switch k {
	case KindTask, KindEvent, KindNote:
		return true
	}
	return false
}

// Colors accepted on an item. Anything else is stored as null.
var Colors = []string{"red", "orange", "yellow", "green", "blue", "purple", "gray"}

// MaxTags is the maximum number of tags kept on an item.
const MaxTags = 5

// MaxItemSuggestions caps the free-text suggestions carried in item metadata.
const MaxItemSuggestions = 3

// Item is one classified, dated unit of output.
type Item struct {
	ID        string       `json:"id,omitempty"`
	Kind      ItemKind     `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Title     string       `json:"title,omitempty"`
	Content   string       `json:"content,omitempty"`
	Date      string       `json:"date"`
	StartTime *string      `json:"start_time"`
	EndTime   *string      `json:"end_time"`
	Location  *string      `json:"location"`
	Owner     *string      `json:"owner"`
	Project   *string      `json:"project"`
	Urgent    bool         `json:"urgent"`
	Important bool         `json:"important"`
	Tags      []string     `json:"tags"`
	Color     *string      `json:"color"`
	Metadata  ItemMetadata `json:"metadata"`
}

// ItemMetadata holds confidence and enrichment data attached to an item.
type ItemMetadata struct {
	Confidence      float64  `json:"confidence"`
	People          []string `json:"people"`
	Warnings        []string `json:"warnings"`
	Suggestions     []string `json:"suggestions"`
	Dependencies    []string `json:"dependencies"`
	LearningSignals []string `json:"learning_signals"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// Label returns the text a human would read for the item: text for tasks and events,
// title for notes.
func (it *Item) Label() string {
	if it.Kind == KindNote && it.Title != "" {
		return it.Title
	}
	if it.Text != "" {
		return it.Text
	}
	return it.Title
}

// Warn appends a warning to the item metadata.
func (it *Item) Warn(msg string) {
	it.Metadata.Warnings = append(it.Metadata.Warnings, msg)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CapturedText is the immutable unit of work for one pipeline run.
type CapturedText struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}
