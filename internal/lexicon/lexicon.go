// Package lexicon holds the French and English keyword tables behind the triage policy:
// event categories, note prefixes, action verbs, time-of-day words and priority markers.
// All matching is case- and accent-insensitive.
package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is an event category; it drives the default duration.
type Category string

const (
	CategoryMeeting Category = "meeting"
	CategoryCall    Category = "call"
	CategoryMeal    Category = "meal"
	CategoryMeetup  Category = "meetup"
	CategoryVisit   Category = "visit"
)

// DefaultDuration is used when an event category cannot be determined.
const DefaultDuration = 60

var durations = map[Category]int{
	CategoryMeeting: 60,
	CategoryCall:    30,
	CategoryMeal:    90,
	CategoryMeetup:  45,
	CategoryVisit:   120,
}

// DurationMinutes returns the default duration for c.
func DurationMinutes(c Category) int {
	if d, ok := durations[c]; ok {
		return d
	}
	return DefaultDuration
}

// ParseCategory reads a category name such as "meal".
func ParseCategory(s string) (Category, bool) {
	c := Category(Fold(strings.TrimSpace(s)))
	_, ok := durations[c]
	return c, ok
}

// Category lookup order matters: the more specific categories win over generic "rdv".
var categoryOrder = []Category{CategoryMeal, CategoryMeetup, CategoryVisit, CategoryCall, CategoryMeeting}

var categoryWords = map[Category][]string{
	CategoryMeal: {"dejeuner", "diner", "lunch", "dinner", "brunch", "petit-dejeuner", "breakfast",
		"restaurant", "resto", "repas"},
	CategoryMeetup: {"cafe", "coffee", "apero", "verre", "drinks", "drink", "afterwork"},
	CategoryVisit: {"visite", "visit", "voyage", "travel", "trip", "vol", "flight", "train",
		"aeroport", "airport"},
	CategoryCall: {"appel", "call", "coup de fil", "conf call"},
	CategoryMeeting: {"rdv", "rendez-vous", "reunion", "meeting", "appointment", "entretien",
		"interview", "dentiste", "medecin", "docteur", "kine", "visio", "standup", "conference",
		"seminaire", "atelier", "workshop", "soutenance"},
}

var actionVerbs = toSet(
	// fr
	"appeler", "rappeler", "telephoner", "envoyer", "acheter", "faire", "preparer", "ecrire",
	"payer", "reserver", "contacter", "finir", "terminer", "verifier", "relancer", "repondre",
	"commander", "organiser", "planifier", "prendre", "reparer", "nettoyer", "ranger", "imprimer",
	"signer", "lire", "revoir", "installer", "demander", "recuperer", "deposer", "rendre",
	"renouveler", "inscrire", "soumettre", "programmer", "penser", "annuler", "confirmer",
	"mettre", "chercher", "trouver", "noter", "valider", "corriger", "livrer", "publier",
	// en
	"call", "send", "buy", "do", "prepare", "write", "pay", "book", "contact", "finish", "check",
	"follow", "reply", "order", "organize", "plan", "take", "fix", "clean", "print", "sign",
	"read", "review", "install", "ask", "pick", "return", "renew", "register", "submit",
	"schedule", "remember", "cancel", "confirm", "email", "update", "find", "validate", "ship",
)

var copulas = toSet("est", "sont", "etait", "c'est", "is", "are", "was", "were", "semble", "seems")

// Fold lowercases s and strips diacritics ("Réunion" -> "reunion").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Tokenize folds s and splits it into words. Hyphenated words stay whole; apostrophes split.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
	})
}

// containsPhrase reports whether the folded, space-padded text contains phrase as whole words.
func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}

func padded(s string) string {
	return " " + strings.Join(Tokenize(s), " ") + " "
}

// EventCategory returns the first category whose keyword appears in text.
func EventCategory(text string) (Category, bool) {
	p := padded(text)
	for _, c := range categoryOrder {
		for _, w := range categoryWords[c] {
			if containsPhrase(p, w) {
				return c, true
			}
		}
	}
	return "", false
}

// HasEventKeyword reports a meeting, meal, meetup or visit keyword. Calls are excluded:
// "appeler Marie" is a task unless a clock time makes it an event.
func HasEventKeyword(text string) bool {
	c, ok := EventCategory(text)
	return ok && c != CategoryCall
}

// IsActionVerb reports whether the folded token is a known action verb.
func IsActionVerb(token string) bool {
	return actionVerbs[token]
}

// HasActionVerb reports whether any token in text is an action verb.
func HasActionVerb(text string) bool {
	for _, tok := range Tokenize(text) {
		if actionVerbs[tok] {
			return true
		}
	}
	return false
}

// StartsWithActionVerb reports an imperative opening, skipping "il faut", "je dois",
// "need to", "todo" style lead-ins.
func StartsWithActionVerb(text string) bool {
	toks := Tokenize(text)
	skip := toSet("il", "faut", "je", "dois", "need", "to", "must", "todo", "i", "should", "penser", "a")
	for i, tok := range toks {
		if actionVerbs[tok] && (tok != "penser" || i == len(toks)-1) {
			return true
		}
		if !skip[tok] {
			return false
		}
	}
	return false
}

// AmbiguousPairs returns "verb+keyword" pairs where an action verb sits within three words of
// an event keyword ("préparer la réunion", "réserver restaurant").
func AmbiguousPairs(text string) []string {
	toks := Tokenize(text)
	eventTok := make(map[string]bool)
	for _, c := range categoryOrder {
		if c == CategoryCall {
			continue
		}
		for _, w := range categoryWords[c] {
			if !strings.Contains(w, " ") {
				eventTok[w] = true
			}
		}
	}
	var pairs []string
	for i, tok := range toks {
		if !actionVerbs[tok] {
			continue
		}
		for j := i + 1; j <= i+3 && j < len(toks); j++ {
			if eventTok[toks[j]] {
				pairs = append(pairs, tok+"+"+toks[j])
				break
			}
		}
	}
	return pairs
}

// LooksFactual reports a statement with a copula and no action verb.
func LooksFactual(text string) bool {
	hasCopula := false
	for _, tok := range Tokenize(text) {
		if actionVerbs[tok] {
			return false
		}
		if copulas[tok] {
			hasCopula = true
		}
	}
	return hasCopula
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
