// Package suggest scores proactive suggestions and enforces the anti-flooding limits.
package suggest

// Hard caps on the suggestions kept. Configuration may lower them, never raise them.
const (
	MaxSuggestionsPerItem = 3
	MaxSuggestionsPerRun  = 7
)

// ScoringConfig holds suggestion scoring weights and limits.
// A negative bonus disables it; zero means unset.
type ScoringConfig struct {
	// Base score per suggestion type
	PrepTaskBase             float64 `yaml:"prep_task_base"`             // default: 0.50
	FollowupBase             float64 `yaml:"followup_base"`              // default: 0.45
	ImplicitActionBase       float64 `yaml:"implicit_action_base"`       // default: 0.55
	SmartReminderBase        float64 `yaml:"smart_reminder_base"`        // default: 0.50
	PlanningOptimizationBase float64 `yaml:"planning_optimization_base"` // default: 0.45

	// Additive bonuses from the triggering item
	UrgentBonus         float64 `yaml:"urgent_bonus"`          // default: 0.20
	ImportantBonus      float64 `yaml:"important_bonus"`       // default: 0.15
	DeadlineBonus       float64 `yaml:"deadline_bonus"`        // default: 0.25
	DeadlineWindowHours float64 `yaml:"deadline_window_hours"` // default: 24
	VIPBonus            float64 `yaml:"vip_bonus"`             // default: 0.10

	// Limits
	DisplayThreshold   float64 `yaml:"display_threshold"`    // default: 0.50
	MaxPerItem         int     `yaml:"max_per_item"`         // default: 3
	MaxPerRun          int     `yaml:"max_per_run"`          // default: 7
	NearDuplicateRatio float64 `yaml:"near_duplicate_ratio"` // default: 0.2 (edit distance / length)
}

// DefaultScoringConfig returns the default scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		PrepTaskBase:             0.50,
		FollowupBase:             0.45,
		ImplicitActionBase:       0.55,
		SmartReminderBase:        0.50,
		PlanningOptimizationBase: 0.45,

		UrgentBonus:         0.20,
		ImportantBonus:      0.15,
		DeadlineBonus:       0.25,
		DeadlineWindowHours: 24,
		VIPBonus:            0.10,

		DisplayThreshold:   0.50,
		MaxPerItem:         MaxSuggestionsPerItem,
		MaxPerRun:          MaxSuggestionsPerRun,
		NearDuplicateRatio: 0.2,
	}
}

// ApplyDefaults fills zero values with defaults and clamps the caps.
func (c *ScoringConfig) ApplyDefaults() {
	d := DefaultScoringConfig()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.PrepTaskBase, d.PrepTaskBase)
	fill(&c.FollowupBase, d.FollowupBase)
	fill(&c.ImplicitActionBase, d.ImplicitActionBase)
	fill(&c.SmartReminderBase, d.SmartReminderBase)
	fill(&c.PlanningOptimizationBase, d.PlanningOptimizationBase)
	fill(&c.UrgentBonus, d.UrgentBonus)
	fill(&c.ImportantBonus, d.ImportantBonus)
	fill(&c.DeadlineBonus, d.DeadlineBonus)
	fill(&c.DeadlineWindowHours, d.DeadlineWindowHours)
	fill(&c.VIPBonus, d.VIPBonus)
	fill(&c.DisplayThreshold, d.DisplayThreshold)
	fill(&c.NearDuplicateRatio, d.NearDuplicateRatio)
	if c.MaxPerItem <= 0 || c.MaxPerItem > MaxSuggestionsPerItem {
		c.MaxPerItem = MaxSuggestionsPerItem
	}
	if c.MaxPerRun <= 0 || c.MaxPerRun > MaxSuggestionsPerRun {
		c.MaxPerRun = MaxSuggestionsPerRun
	}
}
