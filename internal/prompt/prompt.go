// Package prompt renders the oracle instructions from embedded templates.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/hyperjump/triage/internal/contextload"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultPriorityWindow is how long a correction overrides the generic rules.
const DefaultPriorityWindow = 7 * 24 * time.Hour

// Alias is one vocabulary entry.
type Alias struct {
	Alias   string
	Meaning string
}

// Data feeds the stage templates.
type Data struct {
	Temporal            *temporal.Context
	Projects            []string
	Tags                []string
	Members             []string
	People              []string
	Vocabulary          []Alias
	PriorityCorrections []string
	OlderCorrections    []string
	PriorityDays        int
	Enrich              bool
	Stage1JSON          string
}

// LearningData feeds the rule derivation template.
type LearningData struct {
	Field     string
	Original  string
	Corrected string
	Comment   string
	Source    string
}

// Builder renders system instructions.
type Builder struct {
	tmpl           *template.Template
	priorityWindow time.Duration
}

// NewBuilder parses the embedded templates. A zero window uses DefaultPriorityWindow.
func NewBuilder(priorityWindow time.Duration) (*Builder, error) {
	if priorityWindow <= 0 {
		priorityWindow = DefaultPriorityWindow
	}
	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"join": func(names []string) string {
			if len(names) == 0 {
				return "(none)"
			}
			return strings.Join(names, ", ")
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Builder{tmpl: tmpl, priorityWindow: priorityWindow}, nil
}

// Data builds the template data for a run. Corrections younger than the priority window,
// measured from the run's reference instant, are listed as overriding rules.
func (b *Builder) Data(snap *contextload.Snapshot, tc *temporal.Context) *Data {
	d := &Data{
		Temporal:     tc,
		Projects:     snap.Projects,
		Tags:         snap.Tags,
		Members:      snap.Members,
		PriorityDays: int(b.priorityWindow.Hours() / 24),
	}
	for _, e := range snap.Entities {
		if e.Type == models.EntityPerson {
			d.People = append(d.People, describeEntity(e))
		}
	}
	if snap.Profile != nil {
		for alias, meaning := range snap.Profile.Vocabulary {
			d.Vocabulary = append(d.Vocabulary, Alias{Alias: alias, Meaning: meaning})
		}
		sort.Slice(d.Vocabulary, func(i, j int) bool { return d.Vocabulary[i].Alias < d.Vocabulary[j].Alias })
	}
	cutoff := tc.Reference.Add(-b.priorityWindow)
	for _, c := range snap.Corrections {
		line := describeCorrection(c)
		if c.CreatedAt.After(cutoff) {
			d.PriorityCorrections = append(d.PriorityCorrections, line)
		} else {
			d.OlderCorrections = append(d.OlderCorrections, line)
		}
	}
	return d
}

func describeEntity(e models.LearnedEntity) string {
	if len(e.Aliases) == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s (also %s)", e.Name, strings.Join(e.Aliases, ", "))
}

func describeCorrection(c models.CorrectionRecord) string {
	line := fmt.Sprintf("%s: %q -> %q", c.Field, c.Original, c.Corrected)
	if c.Rule != nil && c.Rule.Pattern != "" {
		line += fmt.Sprintf(" (when %q: %s)", c.Rule.Pattern, c.Rule.Action)
	}
	if c.Comment != "" {
		line += " - " + c.Comment
	}
	return line
}

// Stage1 renders the extraction instructions.
func (b *Builder) Stage1(snap *contextload.Snapshot, tc *temporal.Context) (string, error) {
	return b.render("stage1.tmpl", b.Data(snap, tc))
}

// Stage2 renders the enrichment instructions around the first-pass items.
func (b *Builder) Stage2(snap *contextload.Snapshot, tc *temporal.Context, items []models.Item) (string, error) {
	raw, err := json.MarshalIndent(map[string]any{"items": items}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal stage-1 items: %w", err)
	}
	d := b.Data(snap, tc)
	d.Enrich = true
	d.Stage1JSON = string(raw)
	return b.render("stage2.tmpl", d)
}

// Learning renders the rule derivation instructions for one correction.
func (b *Builder) Learning(d LearningData) (string, error) {
	return b.render("learning.tmpl", d)
}

func (b *Builder) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// UserPayload wraps the capture text for the user turn.
func UserPayload(text string) string {
	return "INPUT:\n<<<\n" + strings.TrimSpace(text) + "\n>>>"
}
