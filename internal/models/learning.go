package models

import "time"

// RuleScope says who a derived correction rule applies to.
type RuleScope string

const (
	ScopeGlobal       RuleScope = "global"
	ScopeUserSpecific RuleScope = "user_specific"
)

// CorrectionState tracks a correction through the learner.
type CorrectionState string

const (
	CorrectionSubmitted   CorrectionState = "submitted"
	CorrectionRuleDerived CorrectionState = "rule_derived"
	CorrectionStored      CorrectionState = "stored"
)

// CorrectionRule is the reusable rule derived from one correction.
type CorrectionRule struct {
	Pattern    string    `json:"pattern"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	Scope      RuleScope `json:"scope"`
	Source     string    `json:"source,omitempty"` // "oracle" or "fallback"
}

// CorrectionRecord links a historical item field value to a user-supplied fix.
// Records are append-only.
type CorrectionRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	RunID     string          `json:"run_id"`
	Field     string          `json:"field"`
	Original  string          `json:"original"`
	Corrected string          `json:"corrected"`
	Comment   string          `json:"comment,omitempty"`
	Rule      *CorrectionRule `json:"rule,omitempty"`
	Scope     RuleScope       `json:"scope"`
	State     CorrectionState `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// EntityType is the kind of a learned entity.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityProject EntityType = "project"
	EntityTag     EntityType = "tag"
)

// EntityTypeForField maps a corrected item field to the entity type it names.
// The second result is false for fields that do not name an entity.
func EntityTypeForField(field string) (EntityType, bool) {
	switch field {
	case "owner", "people", "person":
		return EntityPerson, true
	case "project":
		return EntityProject, true
	case "tags", "tag":
		return EntityTag, true
	}
	return "", false
}

// LearnedEntity is a person, project or tag name with aliases accumulated from usage.
type LearnedEntity struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Type      EntityType `json:"type"`
	Frequency int        `json:"frequency"`
	Aliases   []string   `json:"aliases"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Profile is the per-user vocabulary and preferences consulted when grounding a run.
type Profile struct {
	UserID     string            `json:"user_id"`
	Locale     string            `json:"locale,omitempty"`
	Timezone   string            `json:"timezone,omitempty"`
	Vocabulary map[string]string `json:"vocabulary,omitempty"`
	VIPs       []string          `json:"vips,omitempty"`
}
