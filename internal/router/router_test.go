package router

import (
	"strings"
	"testing"
)

func TestRouter_Route(t *testing.T) {
	r := New(nil)

	tests := []struct {
		name        string
		text        string
		counts      Counts
		wantRoute   Route
		wantScore   float64
		wantReasons int
	}{
		{
			name:      "single dated event",
			text:      "RDV dentiste demain 14h30",
			wantRoute: RouteFast,
		},
		{
			name:      "single task",
			text:      "Appeler Marie demain",
			wantRoute: RouteFast,
		},
		{
			name:        "several dates and separators",
			text:        "dentiste lundi, garage mardi et courses mercredi",
			wantRoute:   RouteEnrich,
			wantScore:   0.7,
			wantReasons: 2,
		},
		{
			name:        "ambiguous keyword alone enriches",
			text:        "préparer la réunion",
			wantRoute:   RouteEnrich,
			wantScore:   0.4,
			wantReasons: 1,
		},
		{
			name:        "ambiguous keyword with two dates",
			text:        "préparer la réunion de lundi pour mardi",
			wantRoute:   RouteEnrich,
			wantScore:   0.8,
			wantReasons: 2,
		},
		{
			name:        "length alone ties toward enrichment",
			text:        strings.Repeat("a", 130),
			wantRoute:   RouteEnrich,
			wantScore:   0.4,
			wantReasons: 1,
		},
		{
			name:        "rich context with ambiguity",
			text:        "organiser le dîner",
			counts:      Counts{Projects: 20, Tags: 20, Members: 10},
			wantRoute:   RouteEnrich,
			wantScore:   0.6,
			wantReasons: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(tt.text, tt.counts)
			if d.Route != tt.wantRoute {
				t.Errorf("Route = %s, want %s (reasons %v)", d.Route, tt.wantRoute, d.Reasons)
			}
			if d.ComplexityScore != tt.wantScore {
				t.Errorf("ComplexityScore = %v, want %v", d.ComplexityScore, tt.wantScore)
			}
			if len(d.Reasons) != tt.wantReasons {
				t.Errorf("Reasons = %v, want %d entries", d.Reasons, tt.wantReasons)
			}
			if d.Enrich() != (tt.wantRoute == RouteEnrich) {
				t.Errorf("Enrich() = %v", d.Enrich())
			}
		})
	}
}

func TestRouter_ScoreIsClamped(t *testing.T) {
	r := New(nil)
	text := strings.Repeat("préparer la réunion lundi, mardi et mercredi; ", 5)
	d := r.Route(text, Counts{Projects: 100})
	if d.ComplexityScore != 1 {
		t.Errorf("ComplexityScore = %v, want 1", d.ComplexityScore)
	}
	if len(d.Reasons) != 5 {
		t.Errorf("expected every signal to fire, got %v", d.Reasons)
	}
}

func TestRouter_ForceRoute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ForceRoute = string(RouteEnrich)
	d := New(cfg).Route("Appeler Marie demain", Counts{})
	if d.Route != RouteEnrich {
		t.Errorf("Route = %s, want forced enrich", d.Route)
	}
	if len(d.Reasons) != 1 || !strings.HasPrefix(d.Reasons[0], "forced route") {
		t.Errorf("Reasons = %v", d.Reasons)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{Threshold: 0.6}
	cfg.ApplyDefaults()
	if cfg.Threshold != 0.6 {
		t.Errorf("Threshold overwritten: %v", cfg.Threshold)
	}
	if cfg.LengthThreshold != 120 || cfg.DateWeight != 0.4 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestDefaultConfig_AmbiguityReachesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AmbiguityWeight < cfg.Threshold {
		t.Errorf("AmbiguityWeight %v below Threshold %v", cfg.AmbiguityWeight, cfg.Threshold)
	}
}
