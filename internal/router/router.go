// Package router decides whether a capture needs the enrichment pass.
package router

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/pkg/utils"
)

// Route is the processing path of a run.
type Route string

const (
	// RouteFast runs Stage-1 only.
	RouteFast Route = "fast"
	// RouteEnrich runs Stage-1 then Stage-2.
	RouteEnrich Route = "fast+enrich"
)

// Counts summarizes the size of the user's loaded context.
type Counts struct {
	Projects int
	Tags     int
	Members  int
}

// Total returns the number of context entries.
func (c Counts) Total() int {
	return c.Projects + c.Tags + c.Members
}

// Decision is an explainable routing outcome. Reasons lists every signal that fired.
type Decision struct {
	Route           Route    `json:"route"`
	ComplexityScore float64  `json:"complexity_score"`
	Reasons         []string `json:"reasons"`
}

// Enrich reports whether Stage-2 should run.
func (d Decision) Enrich() bool {
	return d.Route == RouteEnrich
}

// Router scores captures with cheap lexical heuristics.
type Router struct {
	config *Config
}

// New creates a Router. A nil config uses defaults; zero fields are defaulted.
func New(config *Config) *Router {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Router{config: config}
}

// Route scores text and picks a route. Scores equal to the threshold go to enrichment.
func (r *Router) Route(text string, counts Counts) Decision {
	d := Decision{Reasons: []string{}}
	score := 0.0

	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n > r.config.LengthThreshold {
		score += r.config.LengthWeight
		d.Reasons = append(d.Reasons, fmt.Sprintf("length %d > %d", n, r.config.LengthThreshold))
	}

	if days := lexicon.DayExpressions(text); len(days) >= r.config.MinDateExpressions {
		score += r.config.DateWeight
		d.Reasons = append(d.Reasons, fmt.Sprintf("%d date expressions: %s", len(days), strings.Join(days, ", ")))
	}

	if n := lexicon.CountSeparators(text); n >= r.config.MinSeparators {
		score += r.config.SeparatorWeight
		d.Reasons = append(d.Reasons, fmt.Sprintf("%d clause separators", n))
	}

	if pairs := lexicon.AmbiguousPairs(text); len(pairs) > 0 {
		score += r.config.AmbiguityWeight
		d.Reasons = append(d.Reasons, "ambiguous keyword: "+strings.Join(pairs, ", "))
	}

	if total := counts.Total(); total > r.config.RichContextSize {
		score += r.config.RichContextWeight
		d.Reasons = append(d.Reasons, fmt.Sprintf("rich context: %d entries", total))
	}

	d.ComplexityScore = utils.Round2(utils.Clamp01(score))

	switch Route(r.config.ForceRoute) {
	case RouteFast, RouteEnrich:
		d.Route = Route(r.config.ForceRoute)
		d.Reasons = append(d.Reasons, "forced route: "+r.config.ForceRoute)
		return d
	}

	if d.ComplexityScore >= r.config.Threshold {
		d.Route = RouteEnrich
	} else {
		d.Route = RouteFast
	}
	return d
}
