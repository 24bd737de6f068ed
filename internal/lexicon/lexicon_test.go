package lexicon

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Réunion", "reunion"},
		{"Déjeuner à midi", "dejeuner a midi"},
		{"IDÉE", "idee"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"RDV dentiste demain 14h30", "14:30", true},
		{"call at 9:05 with Bob", "09:05", true},
		{"réunion à 9h", "09:00", true},
		{"dinner 7pm", "19:00", true},
		{"lunch 12am", "00:00", true},
		{"rendez-vous à 10 heures", "10:00", true},
		{"Appeler Marie demain", "", false},
		{"acheter 5 amis", "", false},
		{"Finir le rapport en 2h", "", false},
		{"réviser pendant 1 heure", "", false},
		{"rappeler Paul dans 2h", "", false},
		{"work on slides for 3 h", "", false},
		{"prévoir 3h de route", "", false},
		{"en 2h puis réunion à 15h", "15:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ClockTime(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ClockTime(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct{ in, want string }{
		{"9:05", "09:05"},
		{"14h", "14:00"},
		{"14:30:00", "14:30"},
		{"3pm", "15:00"},
	}
	for _, tt := range tests {
		got, ok := NormalizeClock(tt.in)
		if !ok || got != tt.want {
			t.Errorf("NormalizeClock(%q) = %q, %v", tt.in, got, ok)
		}
	}
	if _, ok := NormalizeClock("soon"); ok {
		t.Error("NormalizeClock(soon) should fail")
	}
}

func TestAddMinutes(t *testing.T) {
	if got := AddMinutes("14:30", 60); got != "15:30" {
		t.Errorf("AddMinutes = %q", got)
	}
	if got := AddMinutes("23:30", 90); got != "23:59" {
		t.Errorf("AddMinutes should saturate, got %q", got)
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct{ in, want string }{
		{"réunion demain matin", "09:00"},
		{"déjeuner à midi", "12:00"},
		{"rdv cet après-midi", "14:00"},
		{"rdv après midi", "14:00"},
		{"dîner ce soir", "18:00"},
	}
	for _, tt := range tests {
		got, ok := TimeOfDay(tt.in)
		if !ok || got != tt.want {
			t.Errorf("TimeOfDay(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
}

func TestDayExpressions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"RDV dentiste demain 14h30", []string{"demain"}},
		{"dentiste lundi, garage mardi", []string{"lundi", "mardi"}},
		{"après-demain et demain", []string{"apres-demain", "demain"}},
		{"payer le loyer le 3 mars", []string{"3 mars"}},
		{"demain demain", []string{"demain"}},
		{"rien de daté", []string{}},
	}
	for _, tt := range tests {
		if got := DayExpressions(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DayExpressions(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitNotePrefix(t *testing.T) {
	tests := []struct {
		in     string
		rest   string
		wantOK bool
	}{
		{"Idée: utiliser Redis pour le cache", "utiliser Redis pour le cache", true},
		{"note : acheter du pain", "acheter du pain", true},
		{"! le wifi est lent", "le wifi est lent", true},
		{"Idea: ship it", "ship it", true},
		{"Appeler Marie", "Appeler Marie", false},
	}
	for _, tt := range tests {
		rest, ok := SplitNotePrefix(tt.in)
		if ok != tt.wantOK || rest != tt.rest {
			t.Errorf("SplitNotePrefix(%q) = %q, %v", tt.in, rest, ok)
		}
	}
}

func TestEventCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"RDV dentiste", CategoryMeeting},
		{"rdv déjeuner avec Paul", CategoryMeal},
		{"coup de fil à la banque", CategoryCall},
		{"café avec Léa", CategoryMeetup},
		{"vol pour Lyon", CategoryVisit},
	}
	for _, tt := range tests {
		got, ok := EventCategory(tt.in)
		if !ok || got != tt.want {
			t.Errorf("EventCategory(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
	if DurationMinutes(CategoryMeal) != 90 || DurationMinutes(CategoryCall) != 30 || DurationMinutes("") != 60 {
		t.Error("unexpected category durations")
	}
}

func TestAmbiguousPairs(t *testing.T) {
	if got := AmbiguousPairs("préparer la réunion de lundi"); len(got) != 1 || got[0] != "preparer+reunion" {
		t.Errorf("AmbiguousPairs = %v", got)
	}
	if got := AmbiguousPairs("Appeler Marie demain"); len(got) != 0 {
		t.Errorf("AmbiguousPairs = %v, want none", got)
	}
}

func TestCountSeparators(t *testing.T) {
	if n := CountSeparators("acheter du pain, appeler Marie et réserver le resto; puis dormir"); n != 4 {
		t.Errorf("CountSeparators = %d, want 4", n)
	}
	if n := CountSeparators("Appeler Marie demain"); n != 0 {
		t.Errorf("CountSeparators = %d, want 0", n)
	}
}

func TestMarkers(t *testing.T) {
	if !IsUrgent("URGENT: rappeler le client") || IsUrgent("rappeler le client") {
		t.Error("IsUrgent mismatch")
	}
	if !IsImportant("dossier très important") {
		t.Error("IsImportant mismatch")
	}
	if !MentionsVIP("rappeler le client") {
		t.Error("MentionsVIP mismatch")
	}
	if !HasLocation("déjeuner chez Paul") || HasLocation("déjeuner demain") {
		t.Error("HasLocation mismatch")
	}
}

func TestPersonNames(t *testing.T) {
	got := PersonNames("Déjeuner avec Paul et Marie demain")
	want := []string{"Paul", "Marie"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PersonNames = %v, want %v", got, want)
	}
	if got := PersonNames("RDV dentiste Lundi"); len(got) != 0 {
		t.Errorf("PersonNames = %v, want none", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RDV dentiste demain 14h30", KindEvent},
		{"Appeler Marie demain", KindTask},
		{"Idée: utiliser Redis pour le cache", KindNote},
		{"Note: appeler le plombier à 15h", KindNote},
		{"Déjeuner avec Paul jeudi", KindEvent},
		{"le code du portail est 1234", KindNote},
		{"acheter du pain", KindTask},
		{"Finir le rapport en 2h", KindTask},
		{"réviser pendant 1 heure", KindTask},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got.Kind != tt.want {
				t.Errorf("Classify(%q) = %+v, want %s", tt.in, got, tt.want)
			}
		})
	}
}
