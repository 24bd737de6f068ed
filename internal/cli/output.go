// Package cli provides output helpers for the triage command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat returns the format named by s. Anything but "json" is text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// SearchHit is one item search result.
type SearchHit struct {
	Item  models.Item `json:"item"`
	Score float64     `json:"score"`
}

const rule = "─────────────────────────────────────────────────────────"

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCaptureResult writes a run result to w in the given format.
func WriteCaptureResult(w io.Writer, res *models.CaptureResult, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	s := res.Stats
	fmt.Fprintf(w, "\nRun %s: %d tasks, %d events, %d notes, %d suggestions in %dms",
		res.RunID, s.Tasks, s.Events, s.Notes, s.Suggestions, res.ProcessingTimeMS)
	if res.Route != "" {
		fmt.Fprintf(w, " (route %s)", res.Route)
	}
	fmt.Fprintln(w)
	if res.Degraded {
		fmt.Fprintln(w, "Offline mode: items were extracted without the oracle.")
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "! %s\n", warning)
	}
	fmt.Fprintln(w)
	for i := range res.Items {
		writeItem(w, i, &res.Items[i])
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, "--- Suggestions ---")
		WriteSuggestionLines(w, res.Suggestions)
	}
	return nil
}

func writeItem(w io.Writer, i int, it *models.Item) {
	fmt.Fprintln(w, rule)
	when := it.Date
	if start := models.Deref(it.StartTime); start != "" {
		when += " " + start
		if end := models.Deref(it.EndTime); end != "" {
			when += "-" + end
		}
	}
	fmt.Fprintf(w, "[%d] %s | %s | confidence %.2f\n", i, it.Kind, when, it.Metadata.Confidence)
	if it.Kind == models.KindNote {
		fmt.Fprintf(w, "Title: %s\n%s\n", it.Title, utils.Truncate(it.Content, 200))
	} else {
		fmt.Fprintf(w, "%s\n", it.Text)
	}

	var details []string
	if p := models.Deref(it.Project); p != "" {
		details = append(details, "project "+p)
	}
	if o := models.Deref(it.Owner); o != "" {
		details = append(details, "owner "+o)
	}
	if l := models.Deref(it.Location); l != "" {
		details = append(details, "at "+l)
	}
	if len(it.Tags) > 0 {
		details = append(details, "#"+strings.Join(it.Tags, " #"))
	}
	if it.Urgent {
		details = append(details, "urgent")
	}
	if it.Important {
		details = append(details, "important")
	}
	if len(details) > 0 {
		fmt.Fprintln(w, strings.Join(details, " · "))
	}
	for _, warning := range it.Metadata.Warnings {
		fmt.Fprintf(w, "  ! %s\n", warning)
	}
}

// WriteSuggestionLines writes one line per suggestion.
func WriteSuggestionLines(w io.Writer, suggestions []models.ProactiveSuggestion) {
	for _, sg := range suggestions {
		fmt.Fprintf(w, "%.2f  %-22s %s", sg.PriorityScore, sg.Type, sg.SuggestedTask)
		if sg.SuggestedDate != "" {
			fmt.Fprintf(w, " (%s)", sg.SuggestedDate)
		}
		if sg.Status != "" && sg.Status != models.StatusPending {
			fmt.Fprintf(w, " [%s]", sg.Status)
		}
		if sg.ID != "" {
			fmt.Fprintf(w, "  id=%s", sg.ID)
		}
		fmt.Fprintln(w)
	}
}

// WriteSuggestions writes a suggestion list in the given format.
func WriteSuggestions(w io.Writer, suggestions []models.ProactiveSuggestion, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, map[string]interface{}{"suggestions": suggestions})
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return nil
	}
	WriteSuggestionLines(w, suggestions)
	return nil
}

// WriteItems writes the items of one day in the given format.
func WriteItems(w io.Writer, date string, items []models.Item, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, map[string]interface{}{"date": date, "items": items})
	}
	fmt.Fprintf(w, "\n%s: %d items\n\n", date, len(items))
	for i := range items {
		writeItem(w, i, &items[i])
	}
	return nil
}

// WriteSearchHits writes item search results in the given format.
func WriteSearchHits(w io.Writer, query string, hits []SearchHit, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, map[string]interface{}{"query": query, "hits": hits})
	}
	fmt.Fprintf(w, "\nFound %d items for %q\n\n", len(hits), query)
	for i := range hits {
		fmt.Fprintf(w, "Score: %.4f | ID: %s\n", hits[i].Score, hits[i].Item.ID)
		writeItem(w, i, &hits[i].Item)
	}
	return nil
}

// WriteFeedbackResult writes what the learner stored.
func WriteFeedbackResult(w io.Writer, res *models.FeedbackResult, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	fmt.Fprintf(w, "Stored %d corrections for run %s\n", len(res.Corrections), res.RunID)
	for _, c := range res.Corrections {
		line := fmt.Sprintf("  %s: %q -> %q [%s]", c.Field, c.Original, c.Corrected, c.State)
		if c.Rule != nil {
			line += fmt.Sprintf(" rule %s => %s (%.2f, %s)", c.Rule.Pattern, c.Rule.Action, c.Rule.Confidence, c.Rule.Scope)
		}
		fmt.Fprintln(w, line)
	}
	for _, e := range res.Entities {
		fmt.Fprintf(w, "  learned %s %s (seen %d times, aliases %s)\n",
			e.Type, e.Name, e.Frequency, strings.Join(e.Aliases, ", "))
	}
	return nil
}
