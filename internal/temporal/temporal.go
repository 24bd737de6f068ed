// Package temporal resolves the absolute calendar context of a run: today, tomorrow,
// the day after, and the next seven days by weekday name, in the user's timezone and locale.
//
// Nothing here is cached. The reference instant is an explicit input so every run
// computes its own "today".
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
)

// DateLayout is the ISO calendar date layout used everywhere in items.
const DateLayout = "2006-01-02"

// DefaultLocale is used when the caller does not send one.
const DefaultLocale = "fr"

// LookaheadDays is the size of the weekday table.
const LookaheadDays = 7

var weekdayNames = map[string][7]string{
	"fr": {"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// Day is one resolved calendar date with its localized weekday name.
type Day struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// Context is the resolved calendar context for one run.
type Context struct {
	Reference        time.Time `json:"reference"`
	Timezone         string    `json:"timezone"`
	Locale           string    `json:"locale"`
	Now              string    `json:"now"`
	Today            Day       `json:"today"`
	Tomorrow         Day       `json:"tomorrow"`
	DayAfterTomorrow Day       `json:"day_after_tomorrow"`
	// Lookahead holds days +1..+7 in order.
	Lookahead []Day `json:"lookahead"`

	loc *time.Location
}

// NormalizeLocale reduces "fr-FR" or "en_US" to a supported language code.
// Empty input gives DefaultLocale; unsupported languages give "en".
func NormalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if l == "" {
		return DefaultLocale
	}
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if _, ok := weekdayNames[l]; ok {
		return l
	}
	return "en"
}

// Resolve computes the calendar context of ref in timezone tz.
// An unknown timezone is a ConfigurationError.
func Resolve(ref time.Time, tz, locale string) (*Context, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "timezone", Reason: fmt.Sprintf("unknown timezone %q", tz), Err: err}
	}
	if tz == "" {
		tz = "UTC"
	}
	locale = NormalizeLocale(locale)

	local := ref.In(loc)
	// Midnight in the user's zone, so AddDate walks calendar days across DST changes.
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	c := &Context{
		Reference: ref,
		Timezone:  tz,
		Locale:    locale,
		Now:       local.Format("15:04"),
		loc:       loc,
	}
	c.Today = c.day(midnight)
	c.Tomorrow = c.day(midnight.AddDate(0, 0, 1))
	c.DayAfterTomorrow = c.day(midnight.AddDate(0, 0, 2))
	c.Lookahead = make([]Day, 0, LookaheadDays)
	for i := 1; i <= LookaheadDays; i++ {
		c.Lookahead = append(c.Lookahead, c.day(midnight.AddDate(0, 0, i)))
	}
	return c, nil
}

func (c *Context) day(t time.Time) Day {
	return Day{Date: t.Format(DateLayout), Weekday: weekdayNames[c.Locale][t.Weekday()]}
}

// Location returns the resolved timezone.
func (c *Context) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// At returns the instant for an ISO date and optional "HH:MM" clock in the user's zone.
// A missing clock means the end of that day.
func (c *Context) At(date, clock string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, c.Location())
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return d.Add(24*time.Hour - time.Minute), nil
	}
	h, m, ok := splitClock(clock)
	if !ok {
		return d.Add(24*time.Hour - time.Minute), nil
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, c.Location()), nil
}

// ValidDate reports whether s is an ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

var slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)

var weekdayIndex = map[string]time.Weekday{
	"dimanche": time.Sunday, "lundi": time.Monday, "mardi": time.Tuesday, "mercredi": time.Wednesday,
	"jeudi": time.Thursday, "vendredi": time.Friday, "samedi": time.Saturday,
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// ResolveExpression turns a relative day expression ("demain", "vendredi", "12/03",
// an ISO date) into an ISO date. A bare weekday always means the next occurrence, +1..+7.
func (c *Context) ResolveExpression(expr string) (string, bool) {
	e := strings.TrimSpace(lexicon.Fold(expr))
	e = strings.ReplaceAll(e, "’", "'")
	switch e {
	case "":
		return "", false
	case "aujourd'hui", "aujourdhui", "today":
		return c.Today.Date, true
	case "demain", "tomorrow":
		return c.Tomorrow.Date, true
	case "apres-demain", "apres demain", "day after tomorrow":
		return c.DayAfterTomorrow.Date, true
	}
	if ValidDate(e) {
		return e, true
	}
	if wd, ok := weekdayIndex[e]; ok {
		today, _ := time.ParseInLocation(DateLayout, c.Today.Date, c.Location())
		for i := 1; i <= LookaheadDays; i++ {
			d := today.AddDate(0, 0, i)
			if d.Weekday() == wd {
				return d.Format(DateLayout), true
			}
		}
	}
	if m := slashDateRe.FindStringSubmatch(e); m != nil {
		return c.resolveDayMonth(m[1], m[2], m[3])
	}
	return "", false
}

// resolveDayMonth reads day/month (European order). Without a year, a date already past
// this year rolls to next year.
func (c *Context) resolveDayMonth(dayS, monthS, yearS string) (string, bool) {
	day, _ := strconv.Atoi(dayS)
	month, _ := strconv.Atoi(monthS)
	today, _ := time.ParseInLocation(DateLayout, c.Today.Date, c.Location())
	year := today.Year()
	if yearS != "" {
		year, _ = strconv.Atoi(yearS)
		if year < 100 {
			year += 2000
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, c.Location())
	if d.Day() != day {
		return "", false
	}
	if yearS == "" && d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d.Format(DateLayout), true
}

func splitClock(clock string) (int, int, bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
