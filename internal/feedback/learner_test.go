package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/oracle"
	"github.com/hyperjump/triage/internal/storage"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.RecordRunOutcome(context.Background(), &models.RunMetrics{RunID: "run-1", UserID: "u1", Route: "fast"}))
	return store
}

func TestLearner_FallbackRule(t *testing.T) {
	store := newStore(t)
	l, err := NewLearner(store)
	require.NoError(t, err)

	res, err := l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{
		Feedback: models.FeedbackPartial,
		Corrections: []models.FieldCorrection{
			{Field: "kind", Original: "task", Corrected: "event"},
		},
		Rating: 3,
	})
	require.NoError(t, err)
	require.Len(t, res.Corrections, 1)

	rec := res.Corrections[0]
	assert.Equal(t, models.CorrectionStored, rec.State)
	assert.Equal(t, "u1", rec.UserID)
	require.NotNil(t, rec.Rule)
	assert.Equal(t, "task", rec.Rule.Pattern)
	assert.Equal(t, "replace_with(event)", rec.Rule.Action)
	assert.Equal(t, FallbackConfidence, rec.Rule.Confidence)
	assert.Equal(t, models.ScopeUserSpecific, rec.Scope)
	assert.Equal(t, SourceFallback, rec.Rule.Source)
	assert.Empty(t, res.Entities)

	saved, err := store.GetRecentCorrections(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, models.CorrectionStored, saved[0].State)
	assert.Equal(t, "replace_with(event)", saved[0].Rule.Action)
}

func TestLearner_OracleRule(t *testing.T) {
	store := newStore(t)
	o := oracle.NewScripted(oracle.Reply(`{"pattern": "RDV", "action": "classify as event", "confidence": 0.9, "scope": "global"}`))
	l, err := NewLearner(store, WithOracle(o, 0))
	require.NoError(t, err)

	res, err := l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{
		Feedback:    models.FeedbackIncorrect,
		Corrections: []models.FieldCorrection{{Field: "kind", Original: "task", Corrected: "event", Comment: "un RDV est un événement"}},
	})
	require.NoError(t, err)

	rule := res.Corrections[0].Rule
	assert.Equal(t, "RDV", rule.Pattern)
	assert.Equal(t, models.ScopeGlobal, res.Corrections[0].Scope)
	assert.Equal(t, SourceOracle, rule.Source)

	calls := o.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].System, "corrected value: event")
	assert.Contains(t, calls[0].System, "user comment: un RDV est un événement")
	assert.Equal(t, DefaultLearningMaxOutputTokens, calls[0].MaxOutputTokens)
}

func TestLearner_OracleFailureStillStores(t *testing.T) {
	tests := []struct {
		name string
		step oracle.Step
	}{
		{"unavailable", oracle.Fail(oracle.ErrUnavailable)},
		{"garbage", oracle.Reply("je ne sais pas")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			l, err := NewLearner(store, WithOracle(oracle.NewScripted(tt.step), 0))
			require.NoError(t, err)

			res, err := l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{
				Feedback:    models.FeedbackIncorrect,
				Corrections: []models.FieldCorrection{{Field: "date", Original: "2026-01-10", Corrected: "2026-01-11"}},
			})
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, res.Corrections[0].Rule.Source)
			assert.Equal(t, models.CorrectionStored, res.Corrections[0].State)
		})
	}
}

func TestLearner_EntityCorrections(t *testing.T) {
	store := newStore(t)
	l, err := NewLearner(store)
	require.NoError(t, err)
	ctx := context.Background()

	sub := &models.FeedbackSubmission{
		Feedback: models.FeedbackPartial,
		Corrections: []models.FieldCorrection{
			{Field: "owner", Original: "JP", Corrected: "Jean-Pierre"},
			{Field: "project", Original: "Alpah", Corrected: "Alpha"},
			{Field: "tags", Original: "", Corrected: "perso"},
		},
	}
	res, err := l.Submit(ctx, "run-1", sub)
	require.NoError(t, err)
	require.Len(t, res.Entities, 3)

	_, err = l.Submit(ctx, "run-1", &models.FeedbackSubmission{
		Feedback:    models.FeedbackPartial,
		Corrections: []models.FieldCorrection{{Field: "people", Original: "Jipé", Corrected: "jean-pierre"}},
	})
	require.NoError(t, err)

	entities, err := store.GetLearnedEntities(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	jp := entities[0]
	assert.Equal(t, "Jean-Pierre", jp.Name)
	assert.Equal(t, models.EntityPerson, jp.Type)
	assert.Equal(t, 2, jp.Frequency)
	assert.ElementsMatch(t, []string{"JP", "Jipé"}, jp.Aliases)
}

func TestLearner_Errors(t *testing.T) {
	l, err := NewLearner(newStore(t))
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), "missing", &models.FeedbackSubmission{Feedback: models.FeedbackCorrect})
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{Feedback: "meh"})
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{
		Feedback:    models.FeedbackIncorrect,
		Corrections: []models.FieldCorrection{{Field: "mood", Corrected: "x"}},
	})
	assert.ErrorAs(t, err, &cfgErr)
}

// brokenStore fails correction writes.
type brokenStore struct {
	storage.FeedbackStore
}

func (brokenStore) SaveCorrection(context.Context, *models.CorrectionRecord) error {
	return errors.New("disk full")
}

func TestLearner_PartialWriteFailure(t *testing.T) {
	l, err := NewLearner(brokenStore{FeedbackStore: newStore(t)})
	require.NoError(t, err)

	res, err := l.Submit(context.Background(), "run-1", &models.FeedbackSubmission{
		Feedback: models.FeedbackIncorrect,
		Corrections: []models.FieldCorrection{
			{Field: "owner", Original: "JP", Corrected: "Jean-Pierre"},
			{Field: "date", Original: "2026-01-10", Corrected: "2026-01-11"},
		},
	})
	require.Error(t, err)
	require.Len(t, res.Corrections, 2)
	assert.Equal(t, models.CorrectionRuleDerived, res.Corrections[0].State)
	assert.Len(t, res.Entities, 1, "entity learning continues after a failed correction write")
}

func TestLearner_ObserveMentions(t *testing.T) {
	store := newStore(t)
	l, err := NewLearner(store)
	require.NoError(t, err)
	ctx := context.Background()

	items := []models.Item{
		{Kind: models.KindTask, Text: "Appeler Marie", Metadata: models.ItemMetadata{People: []string{"Marie", "Paul"}}},
		{Kind: models.KindEvent, Text: "Déjeuner", Owner: models.StringPtr("marie"), Metadata: models.ItemMetadata{People: []string{" "}}},
	}
	require.NoError(t, l.ObserveMentions(ctx, "u1", items))
	require.NoError(t, l.ObserveMentions(ctx, "u1", items[:1]))

	entities, err := store.GetLearnedEntities(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	for _, e := range entities {
		assert.Equal(t, 2, e.Frequency, e.Name)
	}
}
