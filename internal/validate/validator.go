// Package validate turns raw oracle output into typed items. Nothing the oracle says is
// trusted: the JSON object is located in free text, every field is schema-checked and
// coerced, and the triage policy is re-applied to auto-correct contradictions.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/lexicon"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/pkg/utils"
)

const (
	// DefaultConfidence is used when the oracle reports none.
	DefaultConfidence = 0.7
	// AmbiguousCeiling keeps auto-corrected items below the 0.85 "certain" band.
	AmbiguousCeiling = 0.84
	// CorrectionPenalty is subtracted when a field had to be forced.
	CorrectionPenalty = 0.1
	// InferredStartPenalty is subtracted when an event gets the default start time.
	InferredStartPenalty = 0.2
	// InferredStartCeiling caps confidence of events with a defaulted start time.
	InferredStartCeiling = 0.8

	maxTitleLength = 60
)

var kindSynonyms = map[string]models.ItemKind{
	"todo":        models.KindTask,
	"action":      models.KindTask,
	"reminder":    models.KindTask,
	"meeting":     models.KindEvent,
	"appointment": models.KindEvent,
	"calendar":    models.KindEvent,
	"rdv":         models.KindEvent,
	"idea":        models.KindNote,
	"idee":        models.KindNote,
	"memo":        models.KindNote,
}

// Input is the per-run context the validator checks against.
type Input struct {
	// Source is the raw capture text. With a single item it is used as a cross-check.
	Source    string
	Temporal  *temporal.Context
	Grounding *Grounding
}

// Result is the validated content of one oracle answer.
type Result struct {
	Items []models.Item
	// Suggestions are candidates only; they are scored by the suggest package.
	Suggestions []models.ProactiveSuggestion
	// Corrections counts fields that were forced by the policy checks.
	Corrections int
	// Warnings are document-level notes such as dropped entries.
	Warnings []string
}

// Validator validates oracle output.
type Validator struct {
	logger *zap.Logger
}

// New creates a Validator.
func New(logger *zap.Logger) *Validator {
	return &Validator{logger: utils.OrNop(logger)}
}

// Validate parses raw and returns the valid items. It fails with a ValidationError when
// no JSON object can be found or when no item survives validation.
func (v *Validator) Validate(raw string, in Input) (*Result, error) {
	if in.Temporal == nil {
		return nil, newValidationError("missing temporal context", raw, nil)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}

	rawItems, ok := doc["items"].([]any)
	if !ok {
		return nil, newValidationError("items is not an array", raw, nil)
	}

	res := &Result{Items: make([]models.Item, 0, len(rawItems)), Suggestions: []models.ProactiveSuggestion{}}
	indexMap := make(map[int]int, len(rawItems))
	single := len(rawItems) == 1
	for i, ri := range rawItems {
		m := asObject(ri)
		if m == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d is not an object, dropped", i))
			continue
		}
		it, corrections, ok := v.item(m, in, single)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d has no text, dropped", i))
			continue
		}
		indexMap[i] = len(res.Items)
		res.Items = append(res.Items, it)
		res.Corrections += corrections
	}
	if len(res.Items) == 0 {
		return nil, newValidationError("no valid items", raw, nil)
	}

	if rawSugs, ok := doc["proactive_suggestions"].([]any); ok {
		for i, rs := range rawSugs {
			s, ok := v.suggestion(asObject(rs), indexMap, res.Items, in)
			if !ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf("suggestion %d invalid, dropped", i))
				continue
			}
			res.Suggestions = append(res.Suggestions, s)
		}
	}

	v.logger.Debug("validated oracle output",
		zap.Int("items", len(res.Items)),
		zap.Int("suggestions", len(res.Suggestions)),
		zap.Int("corrections", res.Corrections),
		zap.Int("dropped", len(res.Warnings)))
	return res, nil
}

// decodeDocument returns the first top-level object that holds an items array. A bare
// item object is wrapped into a one-item document.
func decodeDocument(raw string) (map[string]any, error) {
	candidates := findObjects(raw)
	if len(candidates) == 0 {
		return nil, newValidationError("no JSON object found", raw, nil)
	}
	var firstErr error
	var bare map[string]any
	for _, c := range candidates {
		var doc map[string]any
		if err := json.Unmarshal([]byte(c), &doc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, ok := doc["items"]; ok {
			return doc, nil
		}
		if _, ok := doc["kind"]; ok && bare == nil {
			bare = doc
		}
	}
	if bare != nil {
		return map[string]any{"items": []any{bare}}, nil
	}
	if firstErr != nil {
		return nil, newValidationError("malformed JSON", raw, firstErr)
	}
	return nil, newValidationError("no items in JSON object", raw, nil)
}

// item validates one raw item. It returns the number of forced corrections and false
// when the item carries no usable text.
func (v *Validator) item(m map[string]any, in Input, single bool) (models.Item, int, bool) {
	meta := asObject(m["metadata"])
	get := func(k string) any {
		if x, ok := m[k]; ok {
			return x
		}
		if meta != nil {
			return meta[k]
		}
		return nil
	}

	it := models.Item{}
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	corrections := 0

	text := asString(m["text"])
	title := asString(m["title"])
	content := asString(m["content"])
	label := strings.Join(nonEmpty(text, title, content), " ")
	if label == "" {
		return it, 0, false
	}
	// The capture itself is a second witness when the oracle returned a single item.
	witness := label
	if single && in.Source != "" {
		witness = in.Source
	}

	conf, ok := asFloat(get("confidence"))
	if !ok {
		conf = DefaultConfidence
	} else if conf > 1 && conf <= 100 {
		conf /= 100
	}
	conf = utils.Clamp01(conf)

	// Kind: closed set, then the policy re-check.
	kindS := lexicon.Fold(asString(m["kind"]))
	if kindS == "" {
		kindS = lexicon.Fold(asString(m["type"]))
	}
	kind := models.ItemKind(kindS)
	if !kind.Valid() {
		if syn, ok := kindSynonyms[kindS]; ok {
			kind = syn
		} else {
			warn("unknown kind %q, defaulted to task", kindS)
			kind = models.KindTask
			corrections++
		}
	}
	force := func(cls lexicon.Classification) {
		if cls.Forced && string(kind) != cls.Kind {
			warn("kind corrected from %s to %s: %s", kind, cls.Kind, cls.Reason)
			kind = models.ItemKind(cls.Kind)
			corrections++
		}
	}
	force(lexicon.Classify(label))
	if witness != label {
		force(lexicon.Classify(witness))
	}

	// Date.
	dateS := asString(m["date"])
	switch {
	case temporal.ValidDate(dateS):
		it.Date = dateS
	case dateS != "":
		if d, ok := in.Temporal.ResolveExpression(dateS); ok {
			warn("relative date %q resolved to %s", dateS, d)
			it.Date = d
		} else {
			warn("invalid date %q, defaulted to today", dateS)
			it.Date = in.Temporal.Today.Date
		}
	default:
		it.Date = in.Temporal.Today.Date
		resolved := false
		for _, expr := range lexicon.DayExpressions(witness) {
			if d, ok := in.Temporal.ResolveExpression(expr); ok {
				it.Date = d
				resolved = true
				break
			}
		}
		if !resolved {
			warn("missing date, defaulted to today")
		}
	}

	// Times.
	start := v.clock(asString(m["start_time"]), "start_time", warn)
	end := v.clock(asString(m["end_time"]), "end_time", warn)

	if kind == models.KindTask && start != "" {
		warn("kind corrected from task to event: item has a start time")
		kind = models.KindEvent
		corrections++
	}
	if corrections > 0 {
		conf = math.Min(conf-CorrectionPenalty, AmbiguousCeiling)
	}

	switch kind {
	case models.KindEvent:
		if start == "" {
			if c, ok := lexicon.ClockTime(witness); ok {
				start = c
			} else if c, ok := lexicon.TimeOfDay(witness); ok {
				warn("start time inferred from time of day: %s", c)
				start = c
				conf = math.Min(conf, AmbiguousCeiling)
			} else {
				warn("no time given, start defaulted to %s", lexicon.DefaultClock)
				start = lexicon.DefaultClock
				conf = math.Min(conf-InferredStartPenalty, InferredStartCeiling)
			}
		} else if !mentionsTime(witness) && !mentionsTime(in.Source) {
			// The oracle supplied a start the capture never states.
			if start != lexicon.DefaultClock {
				warn("start time %s not stated, defaulted to %s", start, lexicon.DefaultClock)
			} else {
				warn("no time given, start defaulted to %s", lexicon.DefaultClock)
			}
			start = lexicon.DefaultClock
			end = ""
			conf = math.Min(conf-InferredStartPenalty, InferredStartCeiling)
		}
		cat, known := lexicon.ParseCategory(asString(get("category")))
		if !known {
			cat, _ = lexicon.EventCategory(witness)
		}
		duration, ok := asInt(get("duration_minutes"))
		if !ok || duration <= 0 {
			duration = lexicon.DurationMinutes(cat)
		}
		if end != "" && end <= start {
			warn("end time %s before start %s, recomputed", end, start)
			end = ""
		}
		if end == "" {
			end = lexicon.AddMinutes(start, duration)
		}
		it.Metadata.Category = string(cat)
		it.Metadata.DurationMinutes = duration
	case models.KindNote:
		if start != "" || end != "" {
			warn("times dropped from note")
		}
		start, end = "", ""
	default:
		end = ""
	}
	it.Kind = kind
	it.StartTime = models.StringPtr(start)
	it.EndTime = models.StringPtr(end)

	// Text fields per variant.
	if kind == models.KindNote {
		if title == "" && content == "" {
			content, _ = lexicon.SplitNotePrefix(text)
		}
		if content == "" {
			content = title
		}
		if title == "" {
			title = deriveTitle(content)
		}
		if title == "" {
			return it, corrections, false
		}
		it.Title, it.Content = title, content
	} else {
		if text == "" {
			text = title
		}
		if text == "" {
			text = content
		}
		it.Text, it.Content = text, content
		if it.Content == it.Text {
			it.Content = ""
		}
	}

	// Grounded references: unknown names become null, never invented.
	it.Location = models.StringPtr(asString(m["location"]))
	if owner := asString(m["owner"]); owner != "" {
		if canonical, ok := in.Grounding.Person(owner); ok {
			it.Owner = &canonical
		} else {
			warn("owner %q is not a known member", owner)
		}
	}
	if project := asString(m["project"]); project != "" {
		if canonical, ok := in.Grounding.Project(project); ok {
			it.Project = &canonical
		} else {
			warn("project %q is not an active project", project)
		}
	}
	tags := make([]string, 0)
	var unknownTags []string
	for _, t := range asStrings(m["tags"]) {
		if canonical, ok := in.Grounding.Tag(t); ok {
			tags = append(tags, canonical)
		} else {
			unknownTags = append(unknownTags, t)
		}
	}
	if len(unknownTags) > 0 {
		warn("unknown tags dropped: %s", strings.Join(unknownTags, ", "))
	}
	tags = utils.Dedupe(tags)
	if len(tags) > models.MaxTags {
		warn("tags truncated to %d", models.MaxTags)
		tags = tags[:models.MaxTags]
	}
	it.Tags = tags

	if color := strings.ToLower(asString(m["color"])); color != "" {
		if isColor(color) {
			it.Color = &color
		} else {
			warn("unknown color %q dropped", color)
		}
	}
	it.Urgent = asBool(m["urgent"]) || lexicon.IsUrgent(label)
	it.Important = asBool(m["important"]) || lexicon.IsImportant(label)

	people := asStrings(get("people"))
	for i, p := range people {
		if canonical, ok := in.Grounding.Person(p); ok {
			people[i] = canonical
		}
	}
	it.Metadata.People = orEmpty(utils.Dedupe(people))
	suggestions := asStrings(get("suggestions"))
	if len(suggestions) > models.MaxItemSuggestions {
		suggestions = suggestions[:models.MaxItemSuggestions]
	}
	it.Metadata.Suggestions = orEmpty(suggestions)
	it.Metadata.Dependencies = orEmpty(asStrings(get("dependencies")))
	it.Metadata.LearningSignals = orEmpty(asStrings(get("learning_signals")))
	it.Metadata.Warnings = orEmpty(append(asStrings(get("warnings")), warnings...))
	it.Metadata.Confidence = utils.Round2(utils.Clamp01(conf))

	return it, corrections, true
}

func (v *Validator) clock(s, field string, warn func(string, ...any)) string {
	if s == "" {
		return ""
	}
	c, ok := lexicon.NormalizeClock(s)
	if !ok {
		warn("invalid %s %q dropped", field, s)
		return ""
	}
	return c
}

func (v *Validator) suggestion(m map[string]any, indexMap map[int]int, items []models.Item, in Input) (models.ProactiveSuggestion, bool) {
	var s models.ProactiveSuggestion
	if m == nil {
		return s, false
	}
	typeS := asString(m["suggestion_type"])
	if typeS == "" {
		typeS = asString(m["type"])
	}
	s.Type = models.SuggestionType(strings.ToLower(typeS))
	if !s.Type.Valid() {
		return s, false
	}
	raw, ok := asInt(m["trigger_item_index"])
	if !ok {
		return s, false
	}
	idx, ok := indexMap[raw]
	if !ok {
		return s, false
	}
	s.TriggerItemIndex = idx
	s.SuggestedTask = asString(m["suggested_task"])
	if s.SuggestedTask == "" {
		return s, false
	}
	date := asString(m["suggested_date"])
	switch {
	case temporal.ValidDate(date):
		s.SuggestedDate = date
	default:
		if d, ok := in.Temporal.ResolveExpression(date); ok {
			s.SuggestedDate = d
		} else {
			s.SuggestedDate = items[idx].Date
		}
	}
	s.Reason = asString(m["reason"])
	s.Status = models.StatusPending
	return s, true
}

// deriveTitle returns the first sentence of content, shortened.
func deriveTitle(content string) string {
	content = utils.CollapseSpaces(content)
	if i := strings.IndexAny(content, ".!?\n"); i > 0 {
		content = content[:i]
	}
	return utils.Truncate(strings.TrimSpace(content), maxTitleLength)
}

func isColor(c string) bool {
	for _, known := range models.Colors {
		if c == known {
			return true
		}
	}
	return false
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// mentionsTime reports a clock time or a time-of-day word in text.
func mentionsTime(text string) bool {
	if lexicon.HasClockTime(text) {
		return true
	}
	_, ok := lexicon.TimeOfDay(text)
	return ok
}
