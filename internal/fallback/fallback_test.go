package fallback

import (
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
)

func TestParse(t *testing.T) {
	tc, err := temporal.Resolve(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), "UTC", "fr")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		text       string
		wantUrgent bool
	}{
		{"event-like input stays a task", "RDV dentiste demain 14h30", false},
		{"note-like input stays a task", "Idée: utiliser Redis pour le cache", false},
		{"urgent marker", "URGENT rappeler le client", true},
		{"multi clause", "acheter du pain, appeler Marie et réserver le resto", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Parse(tt.text, tc)
			if len(items) != 1 {
				t.Fatalf("Parse() returned %d items, want 1", len(items))
			}
			it := items[0]
			if it.Kind != models.KindTask {
				t.Errorf("kind = %s, want task", it.Kind)
			}
			if it.Text != tt.text {
				t.Errorf("text = %q, want raw input", it.Text)
			}
			if it.Date != "2026-01-10" {
				t.Errorf("date = %s, want today", it.Date)
			}
			if it.Metadata.Confidence != Confidence {
				t.Errorf("confidence = %v, want %v", it.Metadata.Confidence, Confidence)
			}
			if len(it.Metadata.Warnings) == 0 {
				t.Error("expected a degraded-parsing warning")
			}
			if it.StartTime != nil {
				t.Error("fallback never invents a start time")
			}
			if it.Urgent != tt.wantUrgent {
				t.Errorf("urgent = %v, want %v", it.Urgent, tt.wantUrgent)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	ref := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	tc1, _ := temporal.Resolve(ref, "Europe/Paris", "fr")
	tc2, _ := temporal.Resolve(ref.Add(3*time.Hour), "Europe/Paris", "fr")

	text := "Déjeuner avec Paul jeudi"
	a := Parse(text, tc1)
	b := Parse(text, tc2)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Parse() not idempotent:\n%+v\n%+v", a, b)
	}
}
