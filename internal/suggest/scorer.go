package suggest

import (
	"sort"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/pkg/utils"
)

// Breakdown explains a score.
type Breakdown struct {
	Base    float64            `json:"base"`
	Bonuses map[string]float64 `json:"bonuses"`
	Final   float64            `json:"final"`
}

// Scorer scores and limits the suggestions of one run.
type Scorer struct {
	config  *ScoringConfig
	bonuses []Bonus
}

// NewScorer creates a Scorer. A nil config uses defaults.
func NewScorer(config *ScoringConfig) *Scorer {
	if config == nil {
		config = DefaultScoringConfig()
	}
	config.ApplyDefaults()
	return &Scorer{config: config, bonuses: DefaultBonuses(config)}
}

// Config returns the scoring configuration.
func (s *Scorer) Config() *ScoringConfig {
	return s.config
}

// Base returns the base score for a suggestion type.
func (s *Scorer) Base(t models.SuggestionType) float64 {
	switch t {
	case models.SuggestionPrepTask:
		return s.config.PrepTaskBase
	case models.SuggestionFollowup:
		return s.config.FollowupBase
	case models.SuggestionImplicitAction:
		return s.config.ImplicitActionBase
	case models.SuggestionSmartReminder:
		return s.config.SmartReminderBase
	case models.SuggestionPlanningOptimization:
		return s.config.PlanningOptimizationBase
	}
	return 0
}

// Score returns the priority score in [0, 1].
func (s *Scorer) Score(ctx *ScoringContext) float64 {
	return s.ScoreWithBreakdown(ctx).Final
}

// ScoreWithBreakdown returns the score with each bonus that applied.
func (s *Scorer) ScoreWithBreakdown(ctx *ScoringContext) *Breakdown {
	b := &Breakdown{Base: s.Base(ctx.Suggestion.Type), Bonuses: make(map[string]float64)}
	score := b.Base
	for _, bonus := range s.bonuses {
		if v := bonus.Bonus(ctx); v != 0 {
			b.Bonuses[bonus.Name()] = v
			score += v
		}
	}
	b.Final = utils.Round2(utils.Clamp01(score))
	return b
}

// Apply scores every candidate against its triggering item, then limits the set.
func (s *Scorer) Apply(candidates []models.ProactiveSuggestion, items []models.Item, tc *temporal.Context, vips []string) []models.ProactiveSuggestion {
	scored := make([]models.ProactiveSuggestion, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		ctx := &ScoringContext{Suggestion: &c, Temporal: tc, VIPs: vips}
		if c.TriggerItemIndex >= 0 && c.TriggerItemIndex < len(items) {
			ctx.Item = &items[c.TriggerItemIndex]
		}
		c.PriorityScore = s.Score(ctx)
		if c.Status == "" {
			c.Status = models.StatusPending
		}
		scored = append(scored, c)
	}
	return s.Limit(scored, items)
}

// Limit drops suggestions under the display threshold and those duplicating an item or a
// better suggestion, sorts by score descending, then applies the per-item and per-run caps.
// A lower-scored suggestion is never kept over a higher-scored one competing for the same slot.
func (s *Scorer) Limit(suggestions []models.ProactiveSuggestion, items []models.Item) []models.ProactiveSuggestion {
	eligible := make([]models.ProactiveSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg.PriorityScore >= s.config.DisplayThreshold {
			eligible = append(eligible, sg)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].PriorityScore > eligible[j].PriorityScore
	})

	kept := make([]models.ProactiveSuggestion, 0, min(len(eligible), s.config.MaxPerRun))
	perItem := make(map[int]int)
	for _, sg := range eligible {
		if len(kept) >= s.config.MaxPerRun {
			break
		}
		if perItem[sg.TriggerItemIndex] >= s.config.MaxPerItem {
			continue
		}
		if s.duplicatesItem(sg, items) || s.duplicatesKept(sg, kept) {
			continue
		}
		perItem[sg.TriggerItemIndex]++
		kept = append(kept, sg)
	}
	return kept
}

func (s *Scorer) duplicatesItem(sg models.ProactiveSuggestion, items []models.Item) bool {
	for i := range items {
		for _, t := range []string{items[i].Text, items[i].Title} {
			if NearDuplicate(sg.SuggestedTask, t, s.config.NearDuplicateRatio) {
				return true
			}
		}
	}
	return false
}

func (s *Scorer) duplicatesKept(sg models.ProactiveSuggestion, kept []models.ProactiveSuggestion) bool {
	for _, k := range kept {
		if NearDuplicate(sg.SuggestedTask, k.SuggestedTask, s.config.NearDuplicateRatio) {
			return true
		}
	}
	return false
}
