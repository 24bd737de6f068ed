package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/triage/internal/contextload"
	"github.com/hyperjump/triage/internal/fallback"
	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/prompt"
	"github.com/hyperjump/triage/internal/router"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/internal/suggest"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/internal/validate"
	"github.com/hyperjump/triage/pkg/utils"
)

// Warnings added to a result.
const (
	WarnContextPartial    = "some of your projects, tags or history could not be loaded"
	WarnEnrichmentSkipped = "enrichment unavailable, showing first-pass results"
	WarnCaptureTooLong    = "capture too long for full analysis, parsed offline"
)

// MentionObserver is told about the people named in persisted items.
type MentionObserver interface {
	ObserveMentions(ctx context.Context, userID string, items []models.Item) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = utils.OrNop(l) }
}

// WithIndex makes persisted items searchable.
func WithIndex(idx index.ItemIndex) Option {
	return func(p *Pipeline) { p.index = idx }
}

// WithMentionObserver reports people named in persisted items.
func WithMentionObserver(o MentionObserver) Option {
	return func(p *Pipeline) { p.mentions = o }
}

// WithRouterConfig overrides the complexity router configuration.
func WithRouterConfig(c *router.Config) Option {
	return func(p *Pipeline) { p.routerConfig = c }
}

// WithScoringConfig overrides the suggestion scoring configuration.
func WithScoringConfig(c *suggest.ScoringConfig) Option {
	return func(p *Pipeline) { p.scoringConfig = c }
}

// WithClock sets the source of the reference instant for requests that carry none.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs captures. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	store     storage.ContextStore
	sink      storage.Sink
	stage1    Stage
	stage2    Stage
	config    *Config
	loader    *contextload.Loader
	router    *router.Router
	prompts   *prompt.Builder
	validator *validate.Validator
	scorer    *suggest.Scorer
	writer    *Writer

	index         index.ItemIndex
	mentions      MentionObserver
	routerConfig  *router.Config
	scoringConfig *suggest.ScoringConfig
	now           func() time.Time
	logger        *zap.Logger
}

// New creates a Pipeline. stage2.Oracle may be nil to reuse the Stage-1 oracle.
func New(
	store storage.ContextStore,
	sink storage.Sink,
	stage1, stage2 Stage,
	cfg *Config,
	opts ...Option,
) (*Pipeline, error) {
	if stage1.Oracle == nil {
		return nil, &models.ConfigurationError{Field: "oracle", Reason: "is required"}
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	if stage2.Oracle == nil {
		stage2.Oracle = stage1.Oracle
	}
	if stage1.MaxOutputTokens <= 0 {
		stage1.MaxOutputTokens = DefaultStage1MaxOutputTokens
	}
	if stage2.MaxOutputTokens <= 0 {
		stage2.MaxOutputTokens = DefaultStage2MaxOutputTokens
	}

	p := &Pipeline{
		store:  store,
		sink:   sink,
		stage1: stage1,
		stage2: stage2,
		config: cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	prompts, err := prompt.NewBuilder(cfg.CorrectionPriorityWindow)
	if err != nil {
		return nil, err
	}
	p.prompts = prompts
	p.loader = contextload.New(store,
		contextload.WithLimits(cfg.CorrectionLimit, cfg.EntityLimit),
		contextload.WithLogger(p.logger))
	p.router = router.New(p.routerConfig)
	p.validator = validate.New(p.logger)
	p.scorer = suggest.NewScorer(p.scoringConfig)
	p.writer = NewWriter(sink, p.index, p.logger)
	return p, nil
}

// Run processes one capture and returns its result.
func (p *Pipeline) Run(ctx context.Context, req *models.CaptureRequest) (*models.CaptureResult, error) {
	return p.RunStream(ctx, req, nil)
}

// RunStream is Run with a hook called with the Stage-1 result as soon as it validates,
// before enrichment. The hook is not called when Stage-1 falls back.
//
// Only a bad request (ConfigurationError) or a context cancelled before any work fails
// the run. Otherwise the result holds at least one item. Once Stage-1 has validated, its
// items are persisted even if ctx is cancelled during enrichment.
func (p *Pipeline) RunStream(ctx context.Context, req *models.CaptureRequest, onStage1 func(*models.CaptureResult)) (*models.CaptureResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := p.now()
	if req.ReferenceTime != nil {
		ref = *req.ReferenceTime
	}
	captured := req.Capture(uuid.New().String(), ref)
	runID := captured.ID
	logger := p.logger.With(zap.String("run_id", runID), zap.String("user_id", captured.UserID))

	snap, tc, warnings, err := p.prepare(ctx, req, ref, logger)
	if err != nil {
		return nil, err
	}

	decision := p.router.Route(captured.Text, snap.Counts())
	logger.Info("Routed capture",
		zap.String("route", string(decision.Route)),
		zap.Float64("complexity_score", decision.ComplexityScore),
		zap.Strings("reasons", decision.Reasons))

	metrics := &models.RunMetrics{
		RunID:           runID,
		UserID:          captured.UserID,
		Route:           string(decision.Route),
		ComplexityScore: decision.ComplexityScore,
	}
	in := validate.Input{
		Source:   captured.Text,
		Temporal: tc,
		Grounding: validate.NewGrounding(snap.Projects, snap.Tags, snap.Members,
			snap.Entities, snap.Profile.Vocabulary),
	}

	var items []models.Item
	var candidates []models.ProactiveSuggestion
	degraded := false

	var s1 stageRun
	if len(captured.Text) > models.MaxCaptureLength {
		logger.Warn("Capture too long for the oracle, using offline fallback", zap.Int("bytes", len(captured.Text)))
		warnings = append(warnings, WarnCaptureTooLong)
	} else {
		system, err := p.prompts.Stage1(snap, tc)
		if err != nil {
			return nil, err
		}
		s1 = p.runStage(ctx, "stage1", p.stage1, system, captured.Text, in)
		metrics.OracleCalls += s1.calls
	}
	if s1.result == nil {
		if s1.err != nil {
			logger.Warn("Stage-1 failed, using offline fallback", zap.Error(s1.err))
		}
		items = fallback.Parse(captured.Text, tc)
		degraded = true
		metrics.Fallback = true
		warnings = append(warnings, fallback.Warning)
	} else {
		metrics.Stage1OK = true
		items = s1.result.Items
		candidates = s1.result.Suggestions
		if onStage1 != nil {
			onStage1(&models.CaptureResult{
				RunID:       runID,
				Items:       items,
				Suggestions: []models.ProactiveSuggestion{},
				Stats:       models.CountStats(items, nil),
				Route:       string(decision.Route),
			})
		}

		if decision.Enrich() {
			if err := ctx.Err(); err != nil {
				logger.Info("Caller gone before enrichment, keeping Stage-1 items")
				warnings = append(warnings, WarnEnrichmentSkipped)
			} else if enriched, ok := p.enrich(ctx, snap, tc, items, captured.Text, in, metrics, logger); ok {
				items = enriched.Items
				candidates = enriched.Suggestions
			} else {
				warnings = append(warnings, WarnEnrichmentSkipped)
			}
		}
	}

	suggestions := p.scorer.Apply(candidates, items, tc, snap.Profile.VIPs)

	// Persistence outlives the caller.
	persistCtx := context.WithoutCancel(ctx)
	report := p.writer.Write(persistCtx, runID, captured.UserID, items, suggestions)
	warnings = append(warnings, report.Warnings...)
	metrics.PersistFailures = len(report.Failures)

	if p.mentions != nil {
		if err := p.mentions.ObserveMentions(persistCtx, captured.UserID, items); err != nil {
			logger.Warn("Failed to record mentions", zap.Error(err))
		}
	}

	elapsed := time.Since(start).Milliseconds()
	metrics.Items = len(items)
	metrics.Suggestions = len(suggestions)
	metrics.DurationMS = elapsed
	if err := p.sink.RecordRunOutcome(persistCtx, metrics); err != nil {
		logger.Warn("Failed to record run outcome", zap.Error(err))
	}

	logger.Info("Capture processed",
		zap.Int("items", len(items)),
		zap.Int("suggestions", len(suggestions)),
		zap.Bool("degraded", degraded),
		zap.Int("oracle_calls", metrics.OracleCalls),
		zap.Int64("duration_ms", elapsed))

	return &models.CaptureResult{
		RunID:            runID,
		Items:            items,
		Suggestions:      suggestions,
		Stats:            models.CountStats(items, suggestions),
		ProcessingTimeMS: elapsed,
		Route:            string(decision.Route),
		Degraded:         degraded,
		Warnings:         warnings,
	}, nil
}

// prepare loads the grounding context and resolves the calendar concurrently. The
// profile timezone applies when the request names none.
func (p *Pipeline) prepare(ctx context.Context, req *models.CaptureRequest, ref time.Time, logger *zap.Logger) (*contextload.Snapshot, *temporal.Context, []string, error) {
	var (
		snap       *contextload.Snapshot
		loadErr    error
		tc         *temporal.Context
		resolveErr error
	)
	tz := req.Timezone
	if tz == "" {
		tz = p.config.DefaultTimezone
	}
	locale := req.Locale
	if locale == "" {
		locale = p.config.DefaultLocale
	}

	var eg errgroup.Group
	eg.Go(func() error {
		snap, loadErr = p.loader.Load(ctx, req.UserID)
		return nil
	})
	eg.Go(func() error {
		tc, resolveErr = temporal.Resolve(ref, tz, locale)
		return nil
	})
	_ = eg.Wait()

	if resolveErr != nil {
		return nil, nil, nil, resolveErr
	}

	var warnings []string
	if loadErr != nil {
		warnings = append(warnings, WarnContextPartial)
	}

	if req.Timezone == "" && snap.Profile.Timezone != "" && snap.Profile.Timezone != tz {
		profileLocale := locale
		if req.Locale == "" && snap.Profile.Locale != "" {
			profileLocale = snap.Profile.Locale
		}
		ptc, err := temporal.Resolve(ref, snap.Profile.Timezone, profileLocale)
		if err != nil {
			logger.Warn("Ignoring invalid profile timezone", zap.String("timezone", snap.Profile.Timezone), zap.Error(err))
		} else {
			tc = ptc
		}
	} else if req.Locale == "" && snap.Profile.Locale != "" && temporal.NormalizeLocale(snap.Profile.Locale) != tc.Locale {
		if ptc, err := temporal.Resolve(ref, tc.Timezone, snap.Profile.Locale); err == nil {
			tc = ptc
		}
	}
	return snap, tc, warnings, nil
}

// enrich runs Stage-2 over the Stage-1 items.
func (p *Pipeline) enrich(ctx context.Context, snap *contextload.Snapshot, tc *temporal.Context, items []models.Item,
	text string, in validate.Input, metrics *models.RunMetrics, logger *zap.Logger) (*validate.Result, bool) {
	system, err := p.prompts.Stage2(snap, tc, items)
	if err != nil {
		logger.Error("Failed to render Stage-2 prompt", zap.Error(err))
		return nil, false
	}
	s2 := p.runStage(ctx, "stage2", p.stage2, system, text, in)
	metrics.OracleCalls += s2.calls
	if s2.result == nil {
		if errors.Is(s2.err, context.Canceled) {
			logger.Info("Caller gone during enrichment, keeping Stage-1 items")
		} else {
			logger.Warn("Stage-2 failed, keeping Stage-1 items", zap.Error(s2.err))
		}
		return nil, false
	}
	metrics.Stage2OK = true
	return s2.result, true
}

// String describes the configured stages.
func (p *Pipeline) String() string {
	return fmt.Sprintf("pipeline(stage1=%s, stage2=%s)", p.stage1.Oracle.Name(), p.stage2.Oracle.Name())
}
