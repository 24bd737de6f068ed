package suggest

import (
	"time"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
)

// ScoringContext carries what a bonus may look at for one suggestion.
type ScoringContext struct {
	Suggestion *models.ProactiveSuggestion
	// Item is the triggering item; nil when the index is out of range.
	Item     *models.Item
	Temporal *temporal.Context
	// VIPs are names from the user profile that count as client/VIP involvement.
	VIPs []string
}

// Bonus adds to the base score of a suggestion.
type Bonus interface {
	Name() string
	Bonus(ctx *ScoringContext) float64
}

// DefaultBonuses returns the urgent, important, deadline and VIP bonuses.
func DefaultBonuses(config *ScoringConfig) []Bonus {
	return []Bonus{
		&UrgentBonus{config: config},
		&ImportantBonus{config: config},
		&DeadlineBonus{config: config},
		&VIPBonus{config: config},
	}
}

// UrgentBonus rewards suggestions triggered by an urgent item.
type UrgentBonus struct{ config *ScoringConfig }

func (b *UrgentBonus) Name() string { return "urgent" }

func (b *UrgentBonus) Bonus(ctx *ScoringContext) float64 {
	if ctx.Item != nil && ctx.Item.Urgent {
		return amount(b.config.UrgentBonus)
	}
	return 0
}

// ImportantBonus rewards suggestions triggered by an important item.
type ImportantBonus struct{ config *ScoringConfig }

func (b *ImportantBonus) Name() string { return "important" }

func (b *ImportantBonus) Bonus(ctx *ScoringContext) float64 {
	if ctx.Item != nil && ctx.Item.Important {
		return amount(b.config.ImportantBonus)
	}
	return 0
}

// DeadlineBonus rewards suggestions whose triggering item is due within the window.
// An item without a start time is due at the end of its day.
type DeadlineBonus struct{ config *ScoringConfig }

func (b *DeadlineBonus) Name() string { return "deadline" }

func (b *DeadlineBonus) Bonus(ctx *ScoringContext) float64 {
	if ctx.Item == nil || ctx.Temporal == nil || ctx.Item.Date == "" {
		return 0
	}
	due, err := ctx.Temporal.At(ctx.Item.Date, models.Deref(ctx.Item.StartTime))
	if err != nil {
		return 0
	}
	left := due.Sub(ctx.Temporal.Reference)
	window := time.Duration(b.config.DeadlineWindowHours * float64(time.Hour))
	if left >= 0 && left < window {
		return amount(b.config.DeadlineBonus)
	}
	return 0
}

// VIPBonus rewards suggestions involving a client or a profile VIP.
type VIPBonus struct{ config *ScoringConfig }

func (b *VIPBonus) Name() string { return "vip" }

func (b *VIPBonus) Bonus(ctx *ScoringContext) float64 {
	if involvesVIP(ctx) {
		return amount(b.config.VIPBonus)
	}
	return 0
}

func involvesVIP(ctx *ScoringContext) bool {
	texts := []string{ctx.Suggestion.SuggestedTask, ctx.Suggestion.Reason}
	var names []string
	if ctx.Item != nil {
		texts = append(texts, ctx.Item.Label(), ctx.Item.Content)
		names = append(names, ctx.Item.Metadata.People...)
		if ctx.Item.Owner != nil {
			names = append(names, *ctx.Item.Owner)
		}
	}
	for _, t := range texts {
		if lexicon.MentionsVIP(t) {
			return true
		}
	}
	for _, vip := range ctx.VIPs {
		v := lexicon.Fold(vip)
		for _, n := range names {
			if lexicon.Fold(n) == v {
				return true
			}
		}
	}
	return false
}

// amount reads a configured bonus; a negative value turns it off.
func amount(v float64) float64 {
	return max(v, 0)
}
