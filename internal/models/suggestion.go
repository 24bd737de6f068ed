package models

import (
	"errors"
	"fmt"
	"time"
)

// SuggestionType classifies a proactive suggestion.
type SuggestionType string

const (
	SuggestionPrepTask             SuggestionType = "prep_task"
	SuggestionFollowup             SuggestionType = "followup"
	SuggestionImplicitAction       SuggestionType = "implicit_action"
	SuggestionPlanningOptimization SuggestionType = "planning_optimization"
	SuggestionSmartReminder        SuggestionType = "smart_reminder"
)

// Valid reports whether t is a known suggestion type.
func (t SuggestionType) Valid() bool {
	switch t {
	case SuggestionPrepTask, SuggestionFollowup, SuggestionImplicitAction,
		SuggestionPlanningOptimization, SuggestionSmartReminder:
		return true
	}
	return false
}

// SuggestionStatus is the user-driven lifecycle state of a suggestion.
type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "pending"
	StatusAccepted  SuggestionStatus = "accepted"
	StatusDismissed SuggestionStatus = "dismissed"
	StatusSnoozed   SuggestionStatus = "snoozed"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid suggestion status transition")

var transitions = map[SuggestionStatus][]SuggestionStatus{
	StatusPending: {StatusAccepted, StatusDismissed, StatusSnoozed},
	StatusSnoozed: {StatusPending, StatusAccepted, StatusDismissed},
}

// CanTransition reports whether a suggestion may move from one status to another.
// Accepted and dismissed are terminal.
func CanTransition(from, to SuggestionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition (wrapped) when from -> to is not allowed.
func CheckTransition(from, to SuggestionStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ProactiveSuggestion is a system-generated follow-up recommendation tied to one item of a run.
type ProactiveSuggestion struct {
	ID               string           `json:"id,omitempty"`
	RunID            string           `json:"run_id,omitempty"`
	UserID           string           `json:"user_id,omitempty"`
	Type             SuggestionType   `json:"suggestion_type"`
	TriggerItemIndex int              `json:"trigger_item_index"`
	SuggestedTask    string           `json:"suggested_task"`
	SuggestedDate    string           `json:"suggested_date"`
	PriorityScore    float64          `json:"priority_score"`
	Reason           string           `json:"reason"`
	Status           SuggestionStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at,omitempty"`
}
