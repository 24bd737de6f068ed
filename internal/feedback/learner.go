// Package feedback turns user corrections into stored rules and learned entities that
// ground later runs.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/oracle"
	"github.com/hyperjump/triage/internal/prompt"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/internal/validate"
	"github.com/hyperjump/triage/pkg/utils"
)

// Rule derivation defaults.
const (
	DefaultLearningMaxOutputTokens = 400
	FallbackConfidence             = 0.8
)

// Rule sources.
const (
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

// Option configures a Learner.
type Option func(*Learner)

// WithOracle derives rules with o. Without an oracle every rule is the deterministic fallback.
func WithOracle(o oracle.Oracle, maxOutputTokens int) Option {
	return func(l *Learner) {
		l.oracle = o
		if maxOutputTokens > 0 {
			l.maxOutputTokens = maxOutputTokens
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Learner) { l.logger = utils.OrNop(logger) }
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Learner) { l.now = now }
}

// Learner processes feedback submissions. It is safe for concurrent use.
type Learner struct {
	store           storage.FeedbackStore
	oracle          oracle.Oracle
	maxOutputTokens int
	prompts         *prompt.Builder
	now             func() time.Time
	logger          *zap.Logger
}

// NewLearner creates a Learner backed by store.
func NewLearner(store storage.FeedbackStore, opts ...Option) (*Learner, error) {
	prompts, err := prompt.NewBuilder(prompt.DefaultPriorityWindow)
	if err != nil {
		return nil, err
	}
	l := &Learner{
		store:           store,
		maxOutputTokens: DefaultLearningMaxOutputTokens,
		prompts:         prompts,
		now:             time.Now,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Submit records feedback for a run. Each correction moves submitted → rule_derived →
// stored and is saved whether or not a rule came from the oracle. Corrections naming a
// person, project or tag also update the learned entities.
//
// A failed write does not stop the remaining corrections; the joined error is returned
// with the partial result.
func (l *Learner) Submit(ctx context.Context, runID string, sub *models.FeedbackSubmission) (*models.FeedbackResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	run, err := l.store.GetRunOutcome(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}

	logger := l.logger.With(zap.String("run_id", runID), zap.String("user_id", run.UserID))
	logger.Info("Feedback received",
		zap.String("feedback", string(sub.Feedback)),
		zap.Int("rating", sub.Rating),
		zap.Int("corrections", len(sub.Corrections)))

	result := &models.FeedbackResult{
		RunID:       runID,
		Corrections: make([]models.CorrectionRecord, 0, len(sub.Corrections)),
	}
	var errs []error
	for i, c := range sub.Corrections {
		rec := models.CorrectionRecord{
			UserID:    run.UserID,
			RunID:     runID,
			Field:     c.Field,
			Original:  c.Original,
			Corrected: c.Corrected,
			Comment:   c.Comment,
			State:     models.CorrectionSubmitted,
			CreatedAt: l.now(),
		}

		rec.Rule = l.deriveRule(ctx, c, logger)
		rec.Scope = rec.Rule.Scope
		rec.State = models.CorrectionRuleDerived

		stored := rec
		stored.State = models.CorrectionStored
		if err := l.store.SaveCorrection(ctx, &stored); err != nil {
			logger.Error("Failed to store correction", zap.Int("index", i), zap.Error(err))
			errs = append(errs, fmt.Errorf("correction %d: %w", i, err))
		} else {
			rec = stored
		}
		result.Corrections = append(result.Corrections, rec)

		entity, err := l.learnEntity(ctx, run.UserID, c)
		if err != nil {
			logger.Error("Failed to learn entity", zap.String("name", c.Corrected), zap.Error(err))
			errs = append(errs, fmt.Errorf("correction %d: %w", i, err))
		} else if entity != nil {
			result.Entities = append(result.Entities, *entity)
		}
	}
	return result, errors.Join(errs...)
}

// deriveRule asks the oracle for a rule and falls back to a literal replacement.
func (l *Learner) deriveRule(ctx context.Context, c models.FieldCorrection, logger *zap.Logger) *models.CorrectionRule {
	if l.oracle != nil {
		rule, err := l.oracleRule(ctx, c)
		if err == nil {
			rule.Source = SourceOracle
			return rule
		}
		logger.Warn("Rule derivation failed, using literal rule", zap.String("field", c.Field), zap.Error(err))
	}
	return FallbackRule(c)
}

func (l *Learner) oracleRule(ctx context.Context, c models.FieldCorrection) (*models.CorrectionRule, error) {
	system, err := l.prompts.Learning(prompt.LearningData{
		Field:     c.Field,
		Original:  c.Original,
		Corrected: c.Corrected,
		Comment:   c.Comment,
	})
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("%s: %q -> %q", c.Field, c.Original, c.Corrected)
	raw, err := l.oracle.Invoke(ctx, system, user, l.maxOutputTokens)
	if err != nil {
		return nil, err
	}
	return validate.ParseRule(raw)
}

// FallbackRule is the rule used when no oracle rule is available.
func FallbackRule(c models.FieldCorrection) *models.CorrectionRule {
	return &models.CorrectionRule{
		Pattern:    c.Original,
		Action:     fmt.Sprintf("replace_with(%s)", c.Corrected),
		Confidence: FallbackConfidence,
		Scope:      models.ScopeUserSpecific,
		Source:     SourceFallback,
	}
}

// learnEntity upserts the entity named by a person, project or tag correction. It
// returns nil for fields that name no entity.
func (l *Learner) learnEntity(ctx context.Context, userID string, c models.FieldCorrection) (*models.LearnedEntity, error) {
	typ, ok := models.EntityTypeForField(c.Field)
	if !ok {
		return nil, nil
	}
	e := &models.LearnedEntity{
		UserID:    userID,
		Name:      strings.TrimSpace(c.Corrected),
		Type:      typ,
		Frequency: 1,
	}
	if orig := strings.TrimSpace(c.Original); orig != "" && !strings.EqualFold(orig, e.Name) {
		e.Aliases = []string{orig}
	}
	return l.store.UpsertLearnedEntity(ctx, e)
}

// ObserveMentions bumps the frequency of every person named as owner or participant in
// items. Each name counts once per call.
func (l *Learner) ObserveMentions(ctx context.Context, userID string, items []models.Item) error {
	var names []string
	for i := range items {
		names = append(names, items[i].Metadata.People...)
		if owner := models.Deref(items[i].Owner); owner != "" {
			names = append(names, owner)
		}
	}

	seen := make(map[string]bool)
	var errs []error
	for _, name := range names {
		name = strings.TrimSpace(name)
		k := strings.ToLower(name)
		if name == "" || seen[k] {
			continue
		}
		seen[k] = true
		_, err := l.store.UpsertLearnedEntity(ctx, &models.LearnedEntity{
			UserID:    userID,
			Name:      name,
			Type:      models.EntityPerson,
			Frequency: 1,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to record mention of %q: %w", name, err))
		}
	}
	if len(seen) > 0 {
		l.logger.Debug("Mentions observed", zap.String("user_id", userID), zap.Int("people", len(seen)))
	}
	return errors.Join(errs...)
}
