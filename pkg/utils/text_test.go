package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("réunion", 3); got != "réu..." {
		t.Errorf("rune-aware truncate: got %s", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	got := CollapseSpaces("  RDV   dentiste\n\tdemain  ")
	if got != "RDV dentiste demain" {
		t.Errorf("got %q", got)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"Work", "work", " ", "perso", "Perso", "admin"})
	want := []string{"Work", "perso", "admin"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] got %q want %q", i, got[i], want[i])
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.2, 0}, {0.5, 0.5}, {1.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if Round2(0.6500000001) != 0.65 {
		t.Errorf("Round2 = %v", Round2(0.6500000001))
	}
}
