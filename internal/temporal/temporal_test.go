package temporal

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/triage/internal/models"
)

func mustResolve(t *testing.T, ref time.Time, tz, locale string) *Context {
	t.Helper()
	c, err := Resolve(ref, tz, locale)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return c
}

func TestResolve_Basic(t *testing.T) {
	ref := time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)
	c := mustResolve(t, ref, "Europe/Paris", "fr-FR")

	if c.Today.Date != "2026-01-10" || c.Today.Weekday != "samedi" {
		t.Errorf("today = %+v", c.Today)
	}
	if c.Tomorrow.Date != "2026-01-11" || c.Tomorrow.Weekday != "dimanche" {
		t.Errorf("tomorrow = %+v", c.Tomorrow)
	}
	if c.DayAfterTomorrow.Date != "2026-01-12" {
		t.Errorf("day after tomorrow = %+v", c.DayAfterTomorrow)
	}
	if len(c.Lookahead) != LookaheadDays {
		t.Fatalf("lookahead has %d days", len(c.Lookahead))
	}
	if c.Lookahead[6].Date != "2026-01-17" || c.Lookahead[6].Weekday != "samedi" {
		t.Errorf("last lookahead day = %+v", c.Lookahead[6])
	}
	if c.Now != "09:30" {
		t.Errorf("now = %s, want 09:30 in Paris", c.Now)
	}
	if c.Locale != "fr" {
		t.Errorf("locale = %s", c.Locale)
	}
}

func TestResolve_TimezoneShiftsToday(t *testing.T) {
	// 23:30 UTC on Jan 10 is already Jan 11 in Tokyo.
	ref := time.Date(2026, 1, 10, 23, 30, 0, 0, time.UTC)
	c := mustResolve(t, ref, "Asia/Tokyo", "en")
	if c.Today.Date != "2026-01-11" || c.Today.Weekday != "Sunday" {
		t.Errorf("today = %+v", c.Today)
	}
}

func TestResolve_InvalidTimezone(t *testing.T) {
	_, err := Resolve(time.Now(), "Mars/Olympus", "fr")
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "timezone" {
		t.Errorf("field = %s", cfgErr.Field)
	}
}

func TestResolve_TomorrowProperty(t *testing.T) {
	zones := []string{"UTC", "Europe/Paris", "America/New_York", "Pacific/Auckland"}
	start := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	for _, tz := range zones {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			t.Fatalf("load %s: %v", tz, err)
		}
		// Every 7 hours for ~120 days, covering month/year ends and DST changes.
		for i := 0; i < 420; i++ {
			ref := start.Add(time.Duration(i) * 7 * time.Hour)
			c := mustResolve(t, ref, tz, "en")

			local := ref.In(loc)
			want := time.Date(local.Year(), local.Month(), local.Day()+1, 12, 0, 0, 0, loc)
			if c.Tomorrow.Date != want.Format(DateLayout) {
				t.Fatalf("%s %v: tomorrow = %s, want %s", tz, ref, c.Tomorrow.Date, want.Format(DateLayout))
			}
			if c.Tomorrow.Weekday != want.Weekday().String() {
				t.Fatalf("%s %v: tomorrow weekday = %s, want %s", tz, ref, c.Tomorrow.Weekday, want.Weekday())
			}
		}
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "fr"},
		{"fr-FR", "fr"},
		{"en_US", "en"},
		{"EN", "en"},
		{"de", "en"},
	}
	for _, tt := range tests {
		if got := NormalizeLocale(tt.in); got != tt.want {
			t.Errorf("NormalizeLocale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContext_ResolveExpression(t *testing.T) {
	// Saturday 2026-01-10.
	c := mustResolve(t, time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC), "UTC", "fr")
	tests := []struct {
		expr   string
		want   string
		wantOK bool
	}{
		{"aujourd'hui", "2026-01-10", true},
		{"Demain", "2026-01-11", true},
		{"après-demain", "2026-01-12", true},
		{"lundi", "2026-01-12", true},
		{"samedi", "2026-01-17", true},
		{"Friday", "2026-01-16", true},
		{"2026-02-01", "2026-02-01", true},
		{"14/02", "2026-02-14", true},
		{"05/01", "2027-01-05", true},
		{"31/02", "", false},
		{"bientôt", "", false},
	}
	for _, tt := range tests {
		got, ok := c.ResolveExpression(tt.expr)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ResolveExpression(%q) = %q, %v; want %q, %v", tt.expr, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestContext_At(t *testing.T) {
	c := mustResolve(t, time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC), "Europe/Paris", "fr")
	at, err := c.At("2026-01-11", "14:30")
	if err != nil {
		t.Fatal(err)
	}
	if at.Hour() != 14 || at.Minute() != 30 || at.Location().String() != "Europe/Paris" {
		t.Errorf("At() = %v", at)
	}
	eod, err := c.At("2026-01-11", "")
	if err != nil {
		t.Fatal(err)
	}
	if eod.Hour() != 23 || eod.Minute() != 59 {
		t.Errorf("At() without clock = %v", eod)
	}
	if _, err := c.At("not-a-date", ""); err == nil {
		t.Error("expected error for bad date")
	}
}
