package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/triage/internal/contextload"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/temporal"
)

func testContext(t *testing.T) (*contextload.Snapshot, *temporal.Context) {
	t.Helper()
	ref := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	tc, err := temporal.Resolve(ref, "Europe/Paris", "fr")
	require.NoError(t, err)

	snap := contextload.Empty("u1")
	snap.Projects = []string{"Alpha"}
	snap.Tags = []string{"work", "perso"}
	snap.Members = []string{"Marie Curie"}
	snap.Profile.Vocabulary = map[string]string{"jp": "Jean-Pierre", "bp": "business plan"}
	snap.Entities = []models.LearnedEntity{
		{Name: "Jean-Pierre", Type: models.EntityPerson, Aliases: []string{"JP"}},
		{Name: "Alpha", Type: models.EntityProject},
	}
	snap.Corrections = []models.CorrectionRecord{
		{Field: "kind", Original: "task", Corrected: "event", CreatedAt: ref.Add(-2 * 24 * time.Hour),
			Rule: &models.CorrectionRule{Pattern: "point", Action: "replace_with(event)"}},
		{Field: "project", Original: "Alpah", Corrected: "Alpha", CreatedAt: ref.Add(-10 * 24 * time.Hour)},
	}
	return snap, tc
}

func TestBuilder_Stage1(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	snap, tc := testContext(t)

	out, err := b.Stage1(snap, tc)
	require.NoError(t, err)

	assert.Contains(t, out, "today: samedi 2026-01-10")
	assert.Contains(t, out, "tomorrow: dimanche 2026-01-11")
	assert.Contains(t, out, "vendredi = 2026-01-16")
	assert.Contains(t, out, "samedi = 2026-01-17")
	assert.Contains(t, out, "current time 10:30")
	assert.Contains(t, out, "projects: Alpha")
	assert.Contains(t, out, "tags: work, perso")
	assert.Contains(t, out, "Jean-Pierre (also JP)")
	assert.Contains(t, out, "- bp => business plan")
	assert.Less(t, strings.Index(out, "bp =>"), strings.Index(out, "jp =>"))
	assert.Contains(t, out, "last 7 days")
	assert.NotContains(t, out, "proactive_suggestions")
	assert.NotContains(t, out, "learning_signals")

	recent := strings.Index(out, `kind: "task" -> "event"`)
	older := strings.Index(out, "Older corrections")
	require.NotEqual(t, -1, recent)
	require.NotEqual(t, -1, older)
	assert.Less(t, recent, older)
	assert.Greater(t, strings.Index(out, `project: "Alpah"`), older)
}

func TestBuilder_Stage1_EmptyContext(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	_, tc := testContext(t)

	out, err := b.Stage1(contextload.Empty("u2"), tc)
	require.NoError(t, err)
	assert.Contains(t, out, "projects: (none)")
	assert.NotContains(t, out, "RECENT USER CORRECTIONS")
	assert.NotContains(t, out, "vocabulary")
}

func TestBuilder_Stage2(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	snap, tc := testContext(t)

	items := []models.Item{{Kind: models.KindTask, Text: "Appeler Marie", Date: "2026-01-11", Tags: []string{}}}
	out, err := b.Stage2(snap, tc, items)
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "Appeler Marie"`)
	assert.Contains(t, out, "proactive_suggestions")
	assert.Contains(t, out, "learning_signals")
}

func TestBuilder_Learning(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)

	out, err := b.Learning(LearningData{Field: "owner", Original: "JP", Corrected: "Jean-Pierre"})
	require.NoError(t, err)
	assert.Contains(t, out, "corrected value: Jean-Pierre")
	assert.NotContains(t, out, "user comment")
}

func TestUserPayload(t *testing.T) {
	assert.Equal(t, "INPUT:\n<<<\nbonjour\n>>>", UserPayload("  bonjour \n"))
}
