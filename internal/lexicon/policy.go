package lexicon

// Kind names returned by Classify. They match models.ItemKind values.
const (
	KindTask  = "task"
	KindEvent = "event"
	KindNote  = "note"
)

// Classification is the deterministic reading of one clause under the triage policy.
type Classification struct {
	Kind   string
	Reason string
	// Forced is true when the rule is strong enough to override an oracle decision.
	Forced bool
}

// Classify applies the triage policy to a single clause:
// a note prefix wins over everything, then an explicit clock time or an event keyword with
// a person or a location makes an event, a factual statement without action verb is a note,
// anything else is a task.
func Classify(text string) Classification {
	if HasNotePrefix(text) {
		return Classification{Kind: KindNote, Reason: "note prefix", Forced: true}
	}
	if HasClockTime(text) {
		return Classification{Kind: KindEvent, Reason: "explicit clock time", Forced: true}
	}
	if HasEventKeyword(text) && (len(PersonNames(text)) > 0 || HasLocation(text)) {
		return Classification{Kind: KindEvent, Reason: "event keyword with person or location", Forced: true}
	}
	if LooksFactual(text) {
		return Classification{Kind: KindNote, Reason: "factual statement"}
	}
	return Classification{Kind: KindTask, Reason: "default"}
}
