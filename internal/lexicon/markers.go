package lexicon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	notePrefixRe = regexp.MustCompile(`(?i)^\s*(?:(?:note|id[ée]e|idea|m[ée]mo|info|[àa] retenir|remarque|pense-b[êe]te)\s*:|!)\s*`)

	// Applied to folded text.
	clockFrRe   = regexp.MustCompile(`\b([01]?\d|2[0-3])\s?(?:h|heures?)\s?([0-5]\d)?\b`)
	clockColRe  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	clockAmPmRe = regexp.MustCompile(`\b(1[0-2]|0?[1-9])(?::([0-5]\d))?\s?(am|pm)\b`)

	dayExprRe = regexp.MustCompile(`\b(?:aujourd['’]?hui|today|apres-demain|apres demain|day after tomorrow|demain|tomorrow|` +
		`lundi|mardi|mercredi|jeudi|vendredi|samedi|dimanche|monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
		`ce week-end|this weekend|semaine prochaine|next week|mois prochain|next month|` +
		`\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?|` +
		`\d{1,2}(?:er)? (?:janvier|fevrier|mars|avril|mai|juin|juillet|aout|septembre|octobre|novembre|decembre)|` +
		`(?:january|february|march|april|may|june|july|august|september|october|november|december) \d{1,2})\b`)

	separatorRe = regexp.MustCompile(`\s(?:et|and|also|aussi|puis|then|ensuite|apres ca|after that)\s|[;\n]|,\s|\s-\s`)

	locationRe = regexp.MustCompile(`(?:^|\s)(?:(?i:chez|at|au|aux|à la|a la|in)\s+|(?i:à l'|a l'))\p{Lu}`)
)

// Time-of-day words, checked in order so "après-midi" is not read as "midi".
var timeOfDay = []struct {
	phrases []string
	clock   string
}{
	{[]string{"apres-midi", "apres midi", "aprem", "afternoon", "cet apres-midi"}, "14:00"},
	{[]string{"ce soir", "soir", "soiree", "evening", "tonight"}, "18:00"},
	{[]string{"ce matin", "matin", "matinee", "morning"}, "09:00"},
	{[]string{"midi", "noon", "lunchtime"}, "12:00"},
}

// DefaultClock is the start time given to an event whose time is genuinely unspecified.
const DefaultClock = "09:00"

var urgencyPhrases = []string{"urgent", "urgente", "asap", "au plus vite", "des que possible",
	"immediatement", "critique", "critical", "right away", "tout de suite"}

var importancePhrases = []string{"important", "importante", "essentiel", "essentielle", "crucial",
	"cruciale", "prioritaire", "priorite", "priority", "high priority"}

var vipPhrases = []string{"client", "cliente", "clients", "customer", "vip", "boss", "patron",
	"ceo", "directeur", "directrice", "investisseur", "investor", "board", "partenaire"}

// SplitNotePrefix returns the text after a note marker ("Note:", "Idée:", "!") and true,
// or the original text and false.
func SplitNotePrefix(text string) (string, bool) {
	loc := notePrefixRe.FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	return strings.TrimSpace(text[loc[1]:]), true
}

// HasNotePrefix reports an explicit note marker.
func HasNotePrefix(text string) bool {
	_, ok := SplitNotePrefix(text)
	return ok
}

// ClockTime returns the first explicit clock time in text as "HH:MM".
func ClockTime(text string) (string, bool) {
	f := Fold(text)
	type hit struct {
		pos   int
		clock string
	}
	var best *hit
	consider := func(pos int, clock string) {
		if best == nil || pos < best.pos {
			best = &hit{pos, clock}
		}
	}
	if m := clockColRe.FindStringSubmatchIndex(f); m != nil {
		h, _ := strconv.Atoi(f[m[2]:m[3]])
		mi, _ := strconv.Atoi(f[m[4]:m[5]])
		consider(m[0], formatClock(h, mi))
	}
	for _, m := range clockFrRe.FindAllStringSubmatchIndex(f, -1) {
		if isDuration(f, m[0], m[1]) {
			continue
		}
		h, _ := strconv.Atoi(f[m[2]:m[3]])
		mi := 0
		if m[4] >= 0 {
			mi, _ = strconv.Atoi(f[m[4]:m[5]])
		}
		consider(m[0], formatClock(h, mi))
		break
	}
	if m := clockAmPmRe.FindStringSubmatchIndex(f); m != nil {
		h, _ := strconv.Atoi(f[m[2]:m[3]])
		mi := 0
		if m[4] >= 0 {
			mi, _ = strconv.Atoi(f[m[4]:m[5]])
		}
		switch suffix := f[m[6]:m[7]]; {
		case suffix == "pm" && h < 12:
			h += 12
		case suffix == "am" && h == 12:
			h = 0
		}
		consider(m[0], formatClock(h, mi))
	}
	if best == nil {
		return "", false
	}
	return best.clock, true
}

// Words that turn a following "2h" into a length of time.
var durationLeadIns = map[string]bool{
	"en": true, "pendant": true, "dans": true, "durant": true, "sous": true,
	"for": true, "in": true, "within": true,
}

// Activities that turn a preceding "2h de" into a length of time.
var durationNouns = []string{"travail", "route", "trajet", "marche", "retard", "sport",
	"vol", "train", "sommeil", "boulot", "cours", "reunion", "attente"}

// isDuration reports whether the hour match f[start:end] measures a length of time
// ("en 2h", "pendant 1 heure", "3h de route") rather than naming a clock time.
func isDuration(f string, start, end int) bool {
	before := strings.Fields(f[:start])
	if len(before) > 0 && durationLeadIns[before[len(before)-1]] {
		return true
	}
	after := strings.TrimSpace(f[end:])
	if rest, ok := strings.CutPrefix(after, "de "); ok {
		for _, noun := range durationNouns {
			if rest == noun || strings.HasPrefix(rest, noun+" ") || strings.HasPrefix(rest, noun+",") {
				return true
			}
		}
	}
	return false
}

// HasClockTime reports an explicit clock time.
func HasClockTime(text string) bool {
	_, ok := ClockTime(text)
	return ok
}

func formatClock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

// NormalizeClock accepts "9:05", "09:05", "9h05", "14h" or "3pm" and returns "HH:MM".
func NormalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) == 8 && s[2] == ':' && s[5] == ':' {
		s = s[:5]
	}
	c, ok := ClockTime(s)
	if !ok {
		return "", false
	}
	return c, true
}

// AddMinutes adds n minutes to an "HH:MM" clock, saturating at 23:59.
func AddMinutes(clock string, n int) string {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return clock
	}
	total := h*60 + m + n
	if total > 23*60+59 {
		total = 23*60 + 59
	}
	return formatClock(total/60, total%60)
}

// TimeOfDay returns the default clock for a morning/noon/afternoon/evening mention.
func TimeOfDay(text string) (string, bool) {
	p := padded(text)
	for _, tod := range timeOfDay {
		for _, phrase := range tod.phrases {
			if containsPhrase(p, phrase) {
				return tod.clock, true
			}
		}
	}
	return "", false
}

// DayExpressions returns the distinct day-level date expressions in text, folded.
// Clock times are not day expressions.
func DayExpressions(text string) []string {
	matches := dayExprRe.FindAllString(Fold(text), -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// CountSeparators counts clause separators: conjunctions, commas, semicolons, newlines.
func CountSeparators(text string) int {
	return len(separatorRe.FindAllStringIndex(Fold(text), -1))
}

// IsUrgent reports an urgency marker.
func IsUrgent(text string) bool { return anyPhrase(text, urgencyPhrases) }

// IsImportant reports an importance marker.
func IsImportant(text string) bool { return anyPhrase(text, importancePhrases) }

// MentionsVIP reports a client or VIP marker.
func MentionsVIP(text string) bool { return anyPhrase(text, vipPhrases) }

// HasLocation reports a location marker followed by a proper noun ("chez Paul", "au Café de Flore").
func HasLocation(text string) bool {
	return locationRe.MatchString(text)
}

// PersonNames returns capitalized words that are not the first word of the text and not
// known keywords. It is a cheap heuristic, used only as a sanity check.
func PersonNames(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || r == '-' || r == '\'')
	})
	var names []string
	seen := make(map[string]bool)
	for i, w := range fields {
		if i == 0 || len([]rune(w)) < 2 {
			continue
		}
		r := []rune(w)
		if !unicode.IsUpper(r[0]) || isAllUpper(w) {
			continue
		}
		f := Fold(w)
		if actionVerbs[f] || isKeyword(f) || seen[f] {
			continue
		}
		seen[f] = true
		names = append(names, w)
	}
	return names
}

func isAllUpper(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isKeyword(folded string) bool {
	for _, words := range categoryWords {
		for _, w := range words {
			if w == folded {
				return true
			}
		}
	}
	return dayExprRe.MatchString(folded)
}

func anyPhrase(text string, phrases []string) bool {
	p := padded(text)
	for _, phrase := range phrases {
		if containsPhrase(p, phrase) {
			return true
		}
	}
	return false
}
